package memory

import (
	"github.com/tinoosan/fintrack/internal/service/report"
	"github.com/tinoosan/fintrack/internal/storage"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ storage.Store = (*Store)(nil)
	_ storage.Tx    = (*Tx)(nil)
	_ report.Repo   = (*Store)(nil)
)
