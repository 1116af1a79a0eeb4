package contract

import (
	"sort"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/localstore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// ResultsKey is the local storage key call results live under, as one object
// of address → records.
const ResultsKey = "call_results"

// maxResults caps the records kept per contract; the oldest go first.
const maxResults = 50

// CallRecord is one logged call of a contract method.
type CallRecord struct {
	Time    string   `json:"time"`
	Method  string   `json:"method"`
	Args    []string `json:"args"`
	Outputs []string `json:"outputs,omitempty"`
	DryRun  bool     `json:"dry_run,omitempty"`
	From    string   `json:"from,omitempty"`
	Value   string   `json:"value,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ResultLog keeps the calls made against each stored contract.
type ResultLog struct {
	store *localstore.Store
	now   func() time.Time
}

// NewResultLog creates a ResultLog over store.
func NewResultLog(store *localstore.Store) *ResultLog {
	return &ResultLog{store: store, now: time.Now}
}

func (l *ResultLog) all() (map[string][]CallRecord, error) {
	byAddr := map[string][]CallRecord{}
	if _, err := l.store.GetInto(ResultsKey, &byAddr); err != nil {
		return nil, err
	}
	return byAddr, nil
}

// Record appends rec to the log of address, stamping it if Time is empty.
func (l *ResultLog) Record(address string, rec CallRecord) error {
	byAddr, err := l.all()
	if err != nil {
		return err
	}
	if rec.Time == "" {
		rec.Time = l.now().UTC().Format(time.RFC3339)
	}
	key := common.HexToAddress(address).Hex()
	recs := append(byAddr[key], rec)
	if len(recs) > maxResults {
		recs = recs[len(recs)-maxResults:]
	}
	byAddr[key] = recs
	return l.store.Set(ResultsKey, byAddr)
}

// List returns the records of address, newest first.
func (l *ResultLog) List(address string) ([]CallRecord, error) {
	byAddr, err := l.all()
	if err != nil {
		return nil, err
	}
	recs := lo.Reverse(append([]CallRecord(nil), byAddr[common.HexToAddress(address).Hex()]...))
	// RFC 3339 UTC stamps order as strings; equal stamps keep the later record first.
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Time > recs[j].Time })
	return recs, nil
}

// Clear drops the log of address.
func (l *ResultLog) Clear(address string) error {
	byAddr, err := l.all()
	if err != nil {
		return err
	}
	key := common.HexToAddress(address).Hex()
	if _, ok := byAddr[key]; !ok {
		return nil
	}
	delete(byAddr, key)
	return l.store.Set(ResultsKey, byAddr)
}
