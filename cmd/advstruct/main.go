// SPDX-License-Identifier: MIT

// Command advstruct drives the dynamic bit vector and balanced
// parentheses tree from a text-based operation script, for
// correctness and timing experiments.
//
// Usage:
//
//	advstruct (bv|bp) <input-path> <output-path>
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moritzpotthoff/AdvancedDataStructures/balancedparens"
	"github.com/moritzpotthoff/AdvancedDataStructures/bitvector"
)

func main() {
	log.SetFlags(log.Lmicroseconds)

	if len(os.Args) != 4 {
		log.Fatalf("usage: %s (bv|bp) <input-path> <output-path>", os.Args[0])
	}
	algo, inputPath, outputPath := os.Args[1], os.Args[2], os.Args[3]

	in, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer out.Close()

	var spaceBits int
	start := time.Now()
	switch algo {
	case "bv":
		spaceBits, err = runBitVector(in, out)
	case "bp":
		spaceBits, err = runBalancedParens(in, out)
	default:
		log.Fatalf("unknown algorithm %q, want bv or bp", algo)
	}
	elapsed := time.Since(start)
	if err != nil {
		out.Close()
		os.Remove(outputPath)
		log.Fatalf("%s: %v", algo, err)
	}

	fmt.Printf("RESULT algo=%s name=advstruct time=%d space=%d\n", algo, elapsed.Milliseconds(), spaceBits)
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)
	return scanner
}

func runBitVector(in io.Reader, out io.Writer) (int, error) {
	scanner := newScanner(in)
	if !scanner.Scan() {
		return 0, fmt.Errorf("missing initial length")
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return 0, fmt.Errorf("invalid initial length: %w", err)
	}

	var initial []bool
	if n > 0 {
		if !scanner.Scan() {
			return 0, fmt.Errorf("missing initial bit string")
		}
		tokens := strings.Fields(scanner.Text())
		if len(tokens) != n {
			return 0, fmt.Errorf("bit string has %d tokens != declared length %d", len(tokens), n)
		}
		initial = make([]bool, n)
		for i, tok := range tokens {
			switch tok {
			case "1":
				initial[i] = true
			case "0":
				initial[i] = false
			default:
				return 0, fmt.Errorf("invalid bit %q at position %d", tok, i)
			}
		}
	}
	bv := bitvector.FromBits(initial)

	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "insert":
			pos, bit, err := parsePosBit(fields)
			if err != nil {
				return 0, err
			}
			if err := bv.Insert(pos, bit); err != nil {
				return 0, err
			}
		case "delete":
			pos, err := parseOneInt(fields)
			if err != nil {
				return 0, err
			}
			if err := bv.Delete(pos); err != nil {
				return 0, err
			}
		case "flip":
			pos, err := parseOneInt(fields)
			if err != nil {
				return 0, err
			}
			if _, err := bv.Flip(pos); err != nil {
				return 0, err
			}
		case "rank":
			bit, pos, err := parseBitThenInt(fields)
			if err != nil {
				return 0, err
			}
			r, err := bv.Rank(pos, bit)
			if err != nil {
				return 0, err
			}
			fmt.Fprintln(writer, r)
		case "select":
			bit, j, err := parseBitThenInt(fields)
			if err != nil {
				return 0, err
			}
			s, err := bv.Select(j, bit)
			if err != nil {
				return 0, err
			}
			fmt.Fprintln(writer, s)
		default:
			return 0, fmt.Errorf("unknown bv operation %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return bv.Size(), nil
}

func runBalancedParens(in io.Reader, out io.Writer) (int, error) {
	bp := balancedparens.New()
	scanner := newScanner(in)

	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "insertchild":
			v, i, k, err := parseThreeInts(fields)
			if err != nil {
				return 0, err
			}
			if err := bp.InsertChild(v, i, k); err != nil {
				return 0, err
			}
		case "deletenode":
			v, err := parseOneInt(fields)
			if err != nil {
				return 0, err
			}
			if err := bp.DeleteNode(v); err != nil {
				return 0, err
			}
		case "child":
			v, tIdx, err := parseTwoInts(fields)
			if err != nil {
				return 0, err
			}
			c, err := bp.Child(v, tIdx)
			if err != nil {
				return 0, err
			}
			fmt.Fprintln(writer, c)
		case "subtree_size":
			v, err := parseOneInt(fields)
			if err != nil {
				return 0, err
			}
			s, err := bp.SubtreeSize(v)
			if err != nil {
				return 0, err
			}
			fmt.Fprintln(writer, s)
		case "parent":
			v, err := parseOneInt(fields)
			if err != nil {
				return 0, err
			}
			p, err := bp.Parent(v)
			if err != nil {
				return 0, err
			}
			fmt.Fprintln(writer, p)
		case "degree":
			v, err := parseOneInt(fields)
			if err != nil {
				return 0, err
			}
			d, err := bp.Degree(v)
			if err != nil {
				return 0, err
			}
			fmt.Fprintln(writer, d)
		default:
			return 0, fmt.Errorf("unknown bp operation %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	printDegrees(bp, writer)
	return bp.Size(), nil
}

// printDegrees dumps every node's degree in preorder, as a final
// structural snapshot of the tree.
func printDegrees(bp *balancedparens.Tree, w *bufio.Writer) {
	stack := []int{0}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		deg, err := bp.Degree(v)
		if err != nil {
			continue
		}
		fmt.Fprintln(w, deg)
		for t := deg; t >= 1; t-- {
			child, err := bp.Child(v, t)
			if err != nil {
				continue
			}
			stack = append(stack, child)
		}
	}
}

func parseOneInt(fields []string) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("expected 1 argument for %q", fields[0])
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("invalid argument %q: %w", fields[1], err)
	}
	return v, nil
}

func parseTwoInts(fields []string) (int, int, error) {
	if len(fields) != 3 {
		return 0, 0, fmt.Errorf("expected 2 arguments for %q", fields[0])
	}
	a, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid argument %q: %w", fields[1], err)
	}
	b, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid argument %q: %w", fields[2], err)
	}
	return a, b, nil
}

func parseThreeInts(fields []string) (int, int, int, error) {
	if len(fields) != 4 {
		return 0, 0, 0, fmt.Errorf("expected 3 arguments for %q", fields[0])
	}
	a, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid argument %q: %w", fields[1], err)
	}
	b, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid argument %q: %w", fields[2], err)
	}
	c, err := strconv.Atoi(fields[3])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid argument %q: %w", fields[3], err)
	}
	return a, b, c, nil
}

func parsePosBit(fields []string) (int, bool, error) {
	if len(fields) != 3 {
		return 0, false, fmt.Errorf("expected 2 arguments for %q", fields[0])
	}
	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false, fmt.Errorf("invalid position %q: %w", fields[1], err)
	}
	bit, err := parseBit(fields[2])
	if err != nil {
		return 0, false, err
	}
	return pos, bit, nil
}

// parseBitThenInt parses "<op> <bit> <index>", the order rank and
// select take: the bit to query comes first, then the position or
// rank count.
func parseBitThenInt(fields []string) (bool, int, error) {
	if len(fields) != 3 {
		return false, 0, fmt.Errorf("expected 2 arguments for %q", fields[0])
	}
	bit, err := parseBit(fields[1])
	if err != nil {
		return false, 0, err
	}
	v, err := strconv.Atoi(fields[2])
	if err != nil {
		return false, 0, fmt.Errorf("invalid argument %q: %w", fields[2], err)
	}
	return bit, v, nil
}

func parseBit(tok string) (bool, error) {
	switch tok {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bit %q", tok)
	}
}
