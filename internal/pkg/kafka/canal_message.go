package kafka

import (
	"strconv"
	"strings"
)

// CanalMessage Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`
	SQL      string   `json:"sql"`

	// Data 变更后的数据，DELETE 时为被删除的行
	Data []map[string]interface{} `json:"data"`

	// Old 变更前被修改的字段
	Old []map[string]interface{} `json:"old"`
}

const (
	CanalInsert = "INSERT"
	CanalUpdate = "UPDATE"
	CanalDelete = "DELETE"
)

// IsDML 只处理行级变更
func (m *CanalMessage) IsDML() bool {
	if m.IsDDL {
		return false
	}
	switch strings.ToUpper(m.Type) {
	case CanalInsert, CanalUpdate, CanalDelete:
		return true
	}
	return false
}

// Uint64Column 读取整数列，Canal 中的值通常是字符串
func Uint64Column(row map[string]interface{}, column string) (uint64, bool) {
	switch v := row[column].(type) {
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}
