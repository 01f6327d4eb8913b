package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/wire"
)

// decodeGroupRecords handles the records-by-group payloads:
//
//	[...]                                  bare list
//	{"$values": [...]}                     wrapped list
//	{"nameGroup": ..., "records": [...]}   group with records, the records
//	                                       possibly wrapped or keyed by id
//	{"idRecord": ...}                      single record
//	{"a": {record}, "b": {record}}         any object whose values are records
func decodeGroupRecords(raw []byte) ([]models.Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return wire.List[models.Record](raw)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("catalog: decode records: %w", err)
	}

	var (
		records []models.Record
		err     error
	)
	switch {
	case obj["$values"] != nil:
		records, err = wire.List[models.Record](obj["$values"])
	case obj["records"] != nil:
		records, err = decodeRecordSet(obj["records"])
	case obj["idRecord"] != nil:
		records, err = wire.List[models.Record](raw)
	default:
		records, err = recordValues(obj)
	}
	if err != nil {
		return nil, err
	}

	name := groupNameOf(obj)
	for i := range records {
		if name != "" {
			records[i].GroupName = name
		} else if records[i].GroupName == "" {
			records[i].GroupName = records[i].NameGroup
		}
	}
	return records, nil
}

func decodeRecordSet(raw json.RawMessage) ([]models.Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("catalog: decode records: %w", err)
		}
		if inner, ok := obj["$values"]; ok {
			return wire.List[models.Record](inner)
		}
		return recordValues(obj)
	}
	return wire.List[models.Record](raw)
}

// recordValues keeps the values of obj that look like records, in key order.
func recordValues(obj map[string]json.RawMessage) ([]models.Record, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []models.Record{}
	for _, k := range keys {
		if !looksLikeRecord(obj[k]) {
			continue
		}
		var r models.Record
		if err := json.Unmarshal(obj[k], &r); err != nil {
			return nil, fmt.Errorf("catalog: decode record %q: %w", k, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// looksLikeRecord requires a numeric idRecord, a string titleRecord and a
// numeric stock.
func looksLikeRecord(raw json.RawMessage) bool {
	var probe map[string]interface{}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, idOK := probe["idRecord"].(float64)
	_, titleOK := probe["titleRecord"].(string)
	_, stockOK := probe["stock"].(float64)
	return idOK && titleOK && stockOK
}

func groupNameOf(obj map[string]json.RawMessage) string {
	var name string
	if raw, ok := obj["nameGroup"]; ok && json.Unmarshal(raw, &name) == nil && name != "" {
		return name
	}
	var group struct {
		NameGroup string `json:"nameGroup"`
	}
	if raw, ok := obj["group"]; ok && json.Unmarshal(raw, &group) == nil {
		return group.NameGroup
	}
	return ""
}
