// Package options implements the option-chain pipeline: fetch the raw
// chain from the exchange adapter, flatten it for one expiry, band the
// strikes around ATM, and persist an immutable snapshot (CSV rows plus
// JSON metadata) with atomic renames.
package options

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/faststock/internal/metrics"
	"github.com/seenimoa/faststock/internal/provider"
	"github.com/seenimoa/faststock/pkg/symbols"
)

// snapshotTimestampLayout orders lexicographically the same as
// chronologically, which is what Latest relies on.
const snapshotTimestampLayout = "2006-01-02_15-04-05"

// Meta is the snapshot metadata document written next to the CSV.
type Meta struct {
	CreatedAtUTC         string  `json:"createdAtUTC"`
	IndexName            string  `json:"indexName"`
	Expiry               string  `json:"expiry"`
	UnderlyingValue      float64 `json:"underlyingValue"`
	ATMStrike            int     `json:"atmStrike"`
	SelectedStrikesRange [2]int  `json:"selectedStrikesRange"`
	TotalStrikes         int     `json:"totalStrikes"`
}

// Pipeline owns snapshot production and retrieval for all indices.
type Pipeline struct {
	chains  provider.ChainProvider
	dataDir string
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPipeline creates a pipeline writing snapshots under dataDir.
func NewPipeline(chains provider.ChainProvider, dataDir string, m *metrics.Metrics, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		chains:  chains,
		dataDir: dataDir,
		metrics: m,
		log:     log.With().Str("component", "options").Logger(),
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-index mutex. Serializing writers per index
// keeps two same-second snapshots from colliding on one filename.
func (p *Pipeline) lockFor(index string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[index]
	if !ok {
		l = &sync.Mutex{}
		p.locks[index] = l
	}
	return l
}

// Expiries returns the upstream expiry list for an index.
func (p *Pipeline) Expiries(ctx context.Context, index string) ([]string, error) {
	doc, err := p.chains.OptionChain(ctx, symbols.Normalize(index))
	if err != nil {
		return nil, err
	}
	return doc.Records.ExpiryDates, nil
}

// FetchLive fetches, flattens, and bands a chain without persisting
// anything. expiry accepts both client formats; empty means nearest.
func (p *Pipeline) FetchLive(ctx context.Context, index, expiry string, numStrikes int) (*Chain, *Meta, error) {
	index = symbols.Normalize(index)
	expiry, err := NormalizeExpiry(expiry)
	if err != nil {
		return nil, nil, err
	}

	doc, err := p.chains.OptionChain(ctx, index)
	if err != nil {
		return nil, nil, err
	}

	chain, err := Flatten(doc, expiry)
	if err != nil {
		return nil, nil, err
	}
	banded, atm, strikeRange, err := Band(chain, numStrikes)
	if err != nil {
		return nil, nil, err
	}

	meta := &Meta{
		CreatedAtUTC:         p.now().UTC().Format(time.RFC3339),
		IndexName:            index,
		Expiry:               banded.Expiry,
		UnderlyingValue:      banded.UnderlyingValue,
		ATMStrike:            int(atm),
		SelectedStrikesRange: [2]int{int(strikeRange[0]), int(strikeRange[1])},
		TotalStrikes:         len(banded.Rows),
	}
	return banded, meta, nil
}

// FetchAndPersist produces a snapshot and writes the CSV and metadata
// pair atomically. The write is all-or-nothing: a failure leaves no
// partial files behind.
func (p *Pipeline) FetchAndPersist(ctx context.Context, index, expiry string, numStrikes int) (*Meta, error) {
	index = symbols.Normalize(index)

	banded, meta, err := p.FetchLive(ctx, index, expiry, numStrikes)
	if err != nil {
		return nil, err
	}

	lock := p.lockFor(index)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(p.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", p.dataDir, err)
	}

	base := fmt.Sprintf("%s_option_chain_%s_%s",
		strings.ToLower(index), safeExpiry(meta.Expiry), p.now().Format(snapshotTimestampLayout))

	csvData, err := marshalCSV(banded)
	if err != nil {
		return nil, err
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	if err := writeFileAtomic(p.dataDir, base+".csv", csvData); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(p.dataDir, base+".json", metaData); err != nil {
		// Keep the pair consistent: drop the CSV if its metadata
		// could not land.
		os.Remove(filepath.Join(p.dataDir, base+".csv"))
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.SnapshotWrites.WithLabelValues(index).Inc()
	}
	p.log.Info().
		Str("index", index).
		Str("expiry", meta.Expiry).
		Int("rows", meta.TotalStrikes).
		Str("file", base+".csv").
		Msg("snapshot persisted")
	return meta, nil
}

// Latest returns the newest snapshot CSV path for an index. Snapshot
// filenames embed a sortable timestamp, so descending lexicographic
// order is chronological.
func (p *Pipeline) Latest(index string) (string, error) {
	const op = "options.latest"
	index = strings.ToLower(symbols.Normalize(index))

	entries, err := os.ReadDir(p.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", provider.Errorf(op, index, provider.KindNotFound, "no snapshots recorded yet")
		}
		return "", fmt.Errorf("read %s: %w", p.dataDir, err)
	}

	prefix := index + "_option_chain_"
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".csv") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", provider.Errorf(op, index, provider.KindNotFound, "no snapshots for index %s", index)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return filepath.Join(p.dataDir, names[0]), nil
}

// LoadLatest reads the newest persisted snapshot (rows and metadata)
// for an index.
func (p *Pipeline) LoadLatest(index string) (*Chain, *Meta, error) {
	csvPath, err := p.Latest(index)
	if err != nil {
		return nil, nil, err
	}

	chain, err := readCSV(csvPath)
	if err != nil {
		return nil, nil, err
	}

	metaPath := strings.TrimSuffix(csvPath, ".csv") + ".json"
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read metadata %s: %w", metaPath, err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, nil, fmt.Errorf("parse metadata %s: %w", metaPath, err)
	}
	chain.Expiry = meta.Expiry
	chain.UnderlyingValue = meta.UnderlyingValue
	return chain, &meta, nil
}

// marshalCSV renders the chain in its stable column order.
func marshalCSV(chain *Chain) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(chain.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(chain.Columns))
	for _, row := range chain.Rows {
		for i, col := range chain.Columns {
			switch col {
			case "strikePrice":
				record[i] = formatNumber(row.Strike)
			case "expiryDate":
				record[i] = row.Expiry
			default:
				record[i] = formatCell(row.Fields[col])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return []byte(sb.String()), nil
}

// readCSV parses a snapshot CSV back into a chain. Numeric cells come
// back as float64, everything else as string; empty cells stay absent.
func readCSV(path string) (*Chain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot %s is empty", path)
	}

	columns := records[0]
	chain := &Chain{Columns: columns}
	for _, rec := range records[1:] {
		row := Row{Fields: make(map[string]any, len(columns))}
		for i, col := range columns {
			if i >= len(rec) || rec[i] == "" {
				continue
			}
			switch col {
			case "strikePrice":
				if n, ok := provider.ToNumber(rec[i]); ok {
					row.Strike = n
				}
			case "expiryDate":
				row.Expiry = rec[i]
			default:
				if n, err := strconv.ParseFloat(rec[i], 64); err == nil {
					row.Fields[col] = n
				} else {
					row.Fields[col] = rec[i]
				}
			}
		}
		chain.Rows = append(chain.Rows, row)
	}
	return chain, nil
}

// writeFileAtomic writes to a temp file in dir and renames it into
// place, so readers only ever see complete files.
func writeFileAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatNumber(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
