package domain

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
)

// trailingCutset is stripped from a query right before it is typed into the
// search box. Query lists exported from spreadsheets tend to carry trailing
// quotes and punctuation that would distort the search.
const trailingCutset = "\"'.,!? "

type QueryPool struct {
	All        []string
	Unique     []string
	Duplicates map[string]int

	remaining []string
}

// ParseQueries reads newline-separated queries. Each line is trimmed of
// whitespace and surrounding double quotes; blank lines are dropped.
// Duplicate detection is exact-match on the trimmed value.
func ParseQueries(r io.Reader) (*QueryPool, error) {
	pool := &QueryPool{Duplicates: map[string]int{}}
	counts := map[string]int{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.Trim(line, `"`)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		pool.All = append(pool.All, line)
		counts[line]++
		if counts[line] == 1 {
			pool.Unique = append(pool.Unique, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read query source: %w", err)
	}

	for query, count := range counts {
		if count > 1 {
			pool.Duplicates[query] = count
		}
	}

	return pool, nil
}

func LoadQueryPool(path string) (*QueryPool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open query source: %w", err)
	}
	defer f.Close()

	return ParseQueries(f)
}

// ResetRemaining reinitializes the working pool to the full unique set.
// Called at the start of every session attempt.
func (p *QueryPool) ResetRemaining() {
	p.remaining = make([]string, len(p.Unique))
	copy(p.remaining, p.Unique)
}

// DrawRandom removes and returns one query chosen uniformly at random from
// the working pool. Returns false once the pool is exhausted.
func (p *QueryPool) DrawRandom(rng *rand.Rand) (string, bool) {
	if len(p.remaining) == 0 {
		return "", false
	}

	i := rng.Intn(len(p.remaining))
	query := p.remaining[i]
	p.remaining[i] = p.remaining[len(p.remaining)-1]
	p.remaining = p.remaining[:len(p.remaining)-1]

	return query, true
}

func (p *QueryPool) RemainingCount() int {
	return len(p.remaining)
}

// TrimQueryTail strips trailing quote, punctuation and space characters from
// a drawn query before it is typed.
func TrimQueryTail(query string) string {
	return strings.TrimRight(query, trailingCutset)
}
