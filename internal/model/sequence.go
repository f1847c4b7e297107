package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CodeFormat describes how a sequential code is rendered for a kind.
type CodeFormat struct {
	Prefix string
	Width  int
}

var codeFormats = map[EntityKind]CodeFormat{
	KindProduct:     {Prefix: "PROD_", Width: 3},
	KindServiceType: {Prefix: "ST-", Width: 3},
	KindTransaction: {Prefix: "T-", Width: 3},
}

// ArchivedCodeSuffix marks codes that were frozen by archival so they never
// read like a live code.
const ArchivedCodeSuffix = "-ARCHIVED"

// Sequenced reports whether the kind carries a dense sequential code.
func (k EntityKind) Sequenced() bool {
	_, ok := codeFormats[k]
	return ok
}

// FormatCode renders the n-th (1-based) code of the kind, e.g. PROD_003.
func FormatCode(kind EntityKind, n int) string {
	f, ok := codeFormats[kind]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s%0*d", f.Prefix, f.Width, n)
}

// DisplayCode returns the code as shown to clients.
func DisplayCode(code string, archived bool) string {
	if archived && code != "" {
		return code + ArchivedCodeSuffix
	}
	return code
}

// FormatQueueNumber renders a transaction queue number, e.g. 007.
func FormatQueueNumber(n int64) string {
	return fmt.Sprintf("%03d", n)
}

// Sequence is the per-kind allocation row. Locking it serializes every change
// to the active set of that kind; Issued only ever grows.
type Sequence struct {
	Kind      EntityKind `gorm:"type:varchar(32);primaryKey" json:"kind"`
	Issued    int64      `gorm:"not null;default:0" json:"issued"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CodedRecord is the projection renumbering works on.
type CodedRecord struct {
	ID        uuid.UUID
	Code      string
	CreatedAt time.Time
}
