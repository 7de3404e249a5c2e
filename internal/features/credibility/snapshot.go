// Package credibility - snapshot.go описывает снимок состояния для хранилища.
// Формат - JSON: {score, streak, bonusActive, bonusExpiry?, history[]}.
package credibility

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot - сериализуемое состояние ребёнка.
type Snapshot struct {
	Score       int            `json:"score"`
	Streak      int            `json:"streak"`
	BonusActive bool           `json:"bonusActive"`
	BonusExpiry *time.Time     `json:"bonusExpiry,omitempty"`
	History     []HistoryEvent `json:"history"`
}

// Snapshot снимает текущее состояние. История копируется в порядке вставки.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Score:       s.score,
		Streak:      s.streak,
		BonusActive: s.bonus.Active,
		History:     s.log.Events(),
	}
	if s.bonus.Expiry != nil {
		expiry := *s.bonus.Expiry
		snap.BonusExpiry = &expiry
	}
	return snap
}

// EncodeSnapshot сериализует снимок в JSON.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	return data, nil
}

// DecodeSnapshot разбирает снимок из JSON.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("ошибка разбора снимка: %w", err)
	}
	return snap, nil
}
