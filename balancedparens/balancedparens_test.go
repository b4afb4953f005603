// SPDX-License-Identifier: MIT

package balancedparens

import (
	"errors"
	"testing"

	"github.com/moritzpotthoff/AdvancedDataStructures/internal/profiler"
)

// buildSample builds "(()(()))" directly, matching the tree used in
// internal/tree's search tests: root (0) has two children, a leaf (1)
// and a node (2) with one child (3). The second child is built by
// first adding it as a plain leaf, then wrapping it under a new node
// that captures it.
func buildSample() *Tree {
	bp := New()
	_ = bp.InsertChild(0, 1, 0) // leaf, child 1
	_ = bp.InsertChild(0, 2, 0) // leaf, child 2
	_ = bp.InsertChild(0, 2, 1) // new node captures child 2
	return bp
}

func TestDegreeAndChildren(t *testing.T) {
	t.Parallel()

	bp := buildSample()
	deg, err := bp.Degree(0)
	if err != nil || deg != 2 {
		t.Fatalf("degree(0) = (%d,%v), want (2,nil)", deg, err)
	}

	first, err := bp.Child(0, 1)
	if err != nil {
		t.Fatalf("child(0,1): %v", err)
	}
	second, err := bp.Child(0, 2)
	if err != nil {
		t.Fatalf("child(0,2): %v", err)
	}

	firstDeg, _ := bp.Degree(first)
	secondDeg, _ := bp.Degree(second)
	if firstDeg != 0 {
		t.Fatalf("degree(first child) = %d, want 0", firstDeg)
	}
	if secondDeg != 1 {
		t.Fatalf("degree(second child) = %d, want 1", secondDeg)
	}
}

func TestParentRoundTrip(t *testing.T) {
	t.Parallel()

	bp := buildSample()
	second, _ := bp.Child(0, 2)
	grandchild, err := bp.Child(second, 1)
	if err != nil {
		t.Fatalf("child(second,1): %v", err)
	}

	p, err := bp.Parent(grandchild)
	if err != nil || p != second {
		t.Fatalf("parent(grandchild) = (%d,%v), want (%d,nil)", p, err, second)
	}

	if _, err := bp.Parent(0); !errors.Is(err, ErrRootHasNoParent) {
		t.Fatalf("parent(0) should fail with ErrRootHasNoParent, got %v", err)
	}
}

func TestSubtreeSize(t *testing.T) {
	t.Parallel()

	bp := buildSample()
	if n, err := bp.SubtreeSize(0); err != nil || n != 4 {
		t.Fatalf("subtreeSize(0) = (%d,%v), want (4,nil)", n, err)
	}
	second, _ := bp.Child(0, 2)
	if n, err := bp.SubtreeSize(second); err != nil || n != 2 {
		t.Fatalf("subtreeSize(second) = (%d,%v), want (2,nil)", n, err)
	}
}

func TestDeleteLeafNode(t *testing.T) {
	t.Parallel()

	bp := buildSample()
	first, _ := bp.Child(0, 1)
	if err := bp.DeleteNode(first); err != nil {
		t.Fatalf("deleteNode(first): %v", err)
	}
	if deg, _ := bp.Degree(0); deg != 1 {
		t.Fatalf("degree(0) after delete = %d, want 1", deg)
	}
	if err := bp.DeleteNode(0); !errors.Is(err, ErrDeleteRoot) {
		t.Fatalf("deleteNode(0) should fail with ErrDeleteRoot, got %v", err)
	}
}

func bitsString(bp *Tree) string {
	var sb []byte
	for bit := range bp.t.All() {
		if bit {
			sb = append(sb, '1')
		} else {
			sb = append(sb, '0')
		}
	}
	return string(sb)
}

func TestScenarioTinyBP(t *testing.T) {
	t.Parallel()

	bp := New()
	steps := []struct{ v, i, k int }{
		{0, 1, 0}, {0, 2, 0}, {0, 3, 0},
		{0, 2, 1}, {0, 1, 0}, {0, 1, 2},
		{1, 2, 1},
	}
	for _, s := range steps {
		if err := bp.InsertChild(s.v, s.i, s.k); err != nil {
			t.Fatalf("insertChild(%d,%d,%d): %v", s.v, s.i, s.k, err)
		}
	}

	if got, want := bitsString(bp), "1110110001100100"; got != want {
		t.Fatalf("bit string = %s, want %s", got, want)
	}
	wantDegrees := []int{3, 2, 0, 1, 0, 1, 0, 0}
	for v, want := range wantDegrees {
		if got, err := bp.Degree(v); err != nil || got != want {
			t.Fatalf("degree(%d) = (%d,%v), want (%d,nil)", v, got, err, want)
		}
	}
	if n, err := bp.SubtreeSize(0); err != nil || n != 8 {
		t.Fatalf("subtreeSize(0) = (%d,%v), want (8,nil)", n, err)
	}
	child2, err := bp.Child(0, 2)
	if err != nil {
		t.Fatalf("child(0,2): %v", err)
	}
	pos, err := bp.posOf(child2)
	if err != nil || pos != 9 {
		t.Fatalf("posOf(child(0,2)) = (%d,%v), want (9,nil)", pos, err)
	}
	if p, err := bp.Parent(child2); err != nil || p != 0 {
		t.Fatalf("parent(child(0,2)) = (%d,%v), want (0,nil)", p, err)
	}
	if err := bp.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// Scenario B: deleting the leaf at bit position 13 (preorder 7, the
	// last node) then the leaf at bit position 2 (preorder 2) collapses
	// the tree back down to six nodes. Both preorder numbers are valid
	// at the moment of their own call: deleting the last-numbered node
	// first leaves every earlier preorder number unchanged.
	if err := bp.DeleteNode(7); err != nil {
		t.Fatalf("deleteNode(7): %v", err)
	}
	if err := bp.DeleteNode(2); err != nil {
		t.Fatalf("deleteNode(2): %v", err)
	}
	if got, want := bitsString(bp), "111100011000"; got != want {
		t.Fatalf("bit string after deletes = %s, want %s", got, want)
	}
	wantAfter := map[int]int{0: 2, 1: 1, 2: 1, 3: 0, 4: 1, 5: 0}
	for v, want := range wantAfter {
		if got, err := bp.Degree(v); err != nil || got != want {
			t.Fatalf("degree(%d) = (%d,%v), want (%d,nil)", v, got, err, want)
		}
	}
}

func TestProfilerRecordsOperations(t *testing.T) {
	t.Parallel()

	bp := New()
	basic := profiler.NewBasic()
	bp.Profiler = basic

	if err := bp.InsertChild(0, 1, 0); err != nil {
		t.Fatalf("insertChild: %v", err)
	}
	if _, err := bp.Degree(0); err != nil {
		t.Fatalf("degree: %v", err)
	}
	first, err := bp.Child(0, 1)
	if err != nil {
		t.Fatalf("child: %v", err)
	}
	if _, err := bp.Parent(first); err != nil {
		t.Fatalf("parent: %v", err)
	}
	if _, err := bp.SubtreeSize(0); err != nil {
		t.Fatalf("subtreeSize: %v", err)
	}
	if err := bp.DeleteNode(first); err != nil {
		t.Fatalf("deleteNode: %v", err)
	}

	counts := basic.Counts()
	if counts[profiler.Insert] != 1 {
		t.Fatalf("counts[Insert] = %d, want 1", counts[profiler.Insert])
	}
	if counts[profiler.Delete] != 1 {
		t.Fatalf("counts[Delete] = %d, want 1", counts[profiler.Delete])
	}
	if counts[profiler.Search] != 4 {
		t.Fatalf("counts[Search] = %d, want 4", counts[profiler.Search])
	}
}

func TestInsertChildCapturesSiblings(t *testing.T) {
	t.Parallel()

	bp := New()
	if err := bp.InsertChild(0, 1, 0); err != nil {
		t.Fatalf("insertChild(0,1,0): %v", err)
	}
	if err := bp.InsertChild(0, 2, 0); err != nil {
		t.Fatalf("insertChild(0,2,0): %v", err)
	}
	// wrap both existing leaves under one new node appended as child 1.
	if err := bp.InsertChild(0, 1, 2); err != nil {
		t.Fatalf("insertChild(0,1,2): %v", err)
	}
	child, err := bp.Child(0, 1)
	if err != nil {
		t.Fatalf("child(0,1): %v", err)
	}
	if deg, _ := bp.Degree(child); deg != 2 {
		t.Fatalf("degree(child) = %d, want 2", deg)
	}
	if n, _ := bp.SubtreeSize(0); n != 4 {
		t.Fatalf("subtreeSize(0) = %d, want 4", n)
	}
	if err := bp.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestScenarioFlatStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large flat-tree stress test in short mode")
	}
	t.Parallel()

	const n = 100000
	const groupSize = 200

	bp := New()
	for i := 1; i <= n; i++ {
		if err := bp.InsertChild(0, i, 0); err != nil {
			t.Fatalf("insertChild(0,%d,0): %v", i, err)
		}
	}
	if deg, err := bp.Degree(0); err != nil || deg != n {
		t.Fatalf("degree(0) = (%d,%v), want (%d,nil)", deg, err, n)
	}
	if size, err := bp.SubtreeSize(0); err != nil || size != n+1 {
		t.Fatalf("subtreeSize(0) = (%d,%v), want (%d,nil)", size, err, n+1)
	}
	// sample rather than check all n children: each lookup is O(log n),
	// and the formula is the same for every i.
	for _, i := range []int{1, 2, n / 2, n - 1, n} {
		child, err := bp.Child(0, i)
		if err != nil {
			t.Fatalf("child(0,%d): %v", i, err)
		}
		pos, err := bp.posOf(child)
		if err != nil || pos != 2*i-1 {
			t.Fatalf("posOf(child(0,%d)) = (%d,%v), want (%d,nil)", i, pos, err, 2*i-1)
		}
	}

	for g := 0; g < n/groupSize; g++ {
		if err := bp.InsertChild(0, g+1, groupSize); err != nil {
			t.Fatalf("insertChild(0,%d,%d): %v", g+1, groupSize, err)
		}
	}
	wantGroups := n / groupSize
	if deg, err := bp.Degree(0); err != nil || deg != wantGroups {
		t.Fatalf("degree(0) after grouping = (%d,%v), want (%d,nil)", deg, err, wantGroups)
	}
	for _, i := range []int{1, wantGroups / 2, wantGroups} {
		group, err := bp.Child(0, i)
		if err != nil {
			t.Fatalf("child(0,%d): %v", i, err)
		}
		if size, err := bp.SubtreeSize(group); err != nil || size != groupSize+1 {
			t.Fatalf("subtreeSize(group %d) = (%d,%v), want (%d,nil)", i, size, err, groupSize+1)
		}
	}
	if err := bp.Validate(); err != nil {
		t.Fatalf("validate after grouping: %v", err)
	}

	for {
		deg, err := bp.Degree(0)
		if err != nil {
			t.Fatalf("degree(0): %v", err)
		}
		if deg == 0 {
			break
		}
		first, err := bp.Child(0, 1)
		if err != nil {
			t.Fatalf("child(0,1): %v", err)
		}
		if err := bp.DeleteNode(first); err != nil {
			t.Fatalf("deleteNode(first): %v", err)
		}
	}
	if got, want := bitsString(bp), "10"; got != want {
		t.Fatalf("final bit string = %s, want %s", got, want)
	}
}

func TestScenarioLinearStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large linear-chain stress test in short mode")
	}
	t.Parallel()

	const n = 100000

	bp := New()
	prev := 0
	for step := 1; step <= n; step++ {
		if err := bp.InsertChild(prev, 1, 0); err != nil {
			t.Fatalf("insertChild(%d,1,0): %v", prev, err)
		}
		prev = step
	}
	// sample rather than check all n<N nodes, same reasoning as above.
	for _, i := range []int{0, n / 4, n / 2, 3 * n / 4, n - 1} {
		if size, err := bp.SubtreeSize(i); err != nil || size != n+1-i {
			t.Fatalf("subtreeSize(%d) = (%d,%v), want (%d,nil)", i, size, err, n+1-i)
		}
		if deg, err := bp.Degree(i); err != nil || deg != 1 {
			t.Fatalf("degree(%d) = (%d,%v), want (1,nil)", i, deg, err)
		}
	}

	// deleting from the top repeatedly: each delete promotes the chain's
	// next link into root's only child, so node 1 is always the target.
	for i := 0; i < n; i++ {
		if err := bp.DeleteNode(1); err != nil {
			t.Fatalf("deleteNode(1) at step %d: %v", i, err)
		}
	}
	if got, want := bitsString(bp), "10"; got != want {
		t.Fatalf("final bit string = %s, want %s", got, want)
	}
}
