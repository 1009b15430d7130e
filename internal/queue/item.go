package queue

import (
	"fmt"
	"strconv"
	"strings"
)

// Work items travel the stage queues as "<batchID>:<dni>".

func EncodeItem(batchID int64, dni string) string {
	return strconv.FormatInt(batchID, 10) + ":" + dni
}

func ParseItem(raw string) (batchID int64, dni string, err error) {
	idx := strings.IndexByte(raw, ':')
	if idx <= 0 || idx == len(raw)-1 {
		return 0, "", fmt.Errorf("malformed work item %q", raw)
	}

	batchID, err = strconv.ParseInt(raw[:idx], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed work item %q: %w", raw, err)
	}

	return batchID, raw[idx+1:], nil
}
