package screenscraper

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// idColumns are the header names the export has used for the game id
var idColumns = []string{"id", "jeu_id", "gameid"}

// parseGameList reads a CSV game export. Column order is not fixed, so the id
// column is located by header name. Rows with a non-numeric id are skipped and
// duplicate ids keep their first position.
func parseGameList(r io.Reader) ([]int64, error) {
	br := bufio.NewReader(r)

	// Sniff the delimiter from the header line
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	firstLine := string(head)
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		reader.Comma = ';'
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("game list is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := -1
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		for _, candidate := range idColumns {
			if name == candidate {
				col = i
				break
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("game list has no id column (header: %s)", strings.Join(header, ","))
	}

	seen := make(map[int64]bool)
	var ids []int64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read game list: %w", err)
		}
		if col >= len(record) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(record[col]), 10, 64)
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return ids, nil
}
