package discovery

import (
	"fmt"
	"strconv"
	"strings"
)

// StringsToTXTRecords converts zeroconf TXT strings to a map.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// serverInfo is the decoded TXT payload of a pager service.
type serverInfo struct {
	Site    string
	APIPort int
	Version string
}

// decodeServerTXT decodes pager TXT records. Only a malformed api port is
// an error; every key is optional.
func decodeServerTXT(txt TXTRecordMap) (*serverInfo, error) {
	info := &serverInfo{
		Site:    txt[TXTKeySite],
		Version: txt[TXTKeyVersion],
	}

	if v, ok := txt[TXTKeyAPIPort]; ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%w: api port %q", ErrInvalidTXTRecord, v)
		}
		info.APIPort = port
	}

	return info, nil
}
