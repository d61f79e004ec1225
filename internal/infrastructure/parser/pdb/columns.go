package pdb

import (
	"strconv"
	"strings"
)

// recordType is the six-character record name, space padded for short lines.
func recordType(line string) string {
	if len(line) >= 6 {
		return line[:6]
	}
	return line + strings.Repeat(" ", 6-len(line))
}

// column returns line[from:to] clamped to the line length. Columns are
// zero-based and half-open.
func column(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return line[from:to]
}

// leadingInt parses an optionally signed decimal prefix of s after leading
// blanks, ignoring whatever follows it. ok is false when no digit is found.
func leadingInt(s string) (n int, ok bool) {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// leadingFloat parses the longest decimal prefix of s after leading blanks.
// Unreadable fields yield 0.
func leadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	seenDigit, seenDot := false, false
	for ; end < len(s); end++ {
		c := s[end]
		if c >= '0' && c <= '9' {
			seenDigit = true
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			continue
		}
		break
	}
	if !seenDigit {
		return 0
	}
	// An exponent is accepted only when digits follow it.
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		k := end + 1
		if k < len(s) && (s[k] == '-' || s[k] == '+') {
			k++
		}
		d := k
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > d {
			end = k
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

//Personal.AI order the ending
