// Package journal keeps a local history of repair runs. Each run stores the
// slot bytes as they were before the repair so the run can be undone.
package journal

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/DataDog/zstd"
	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/ersave/pkg/logging"
	"github.com/ssargent/ersave/pkg/repair"
)

const (
	entryPrefix    = "run/"
	preImagePrefix = "pre/"
)

// ErrNotFound is returned for unknown run ids.
var ErrNotFound = errors.New("journal entry not found")

// Entry describes one repair run.
type Entry struct {
	ID        ksuid.KSUID           `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	SavePath  string                `json:"save_path"`
	Slot      int                   `json:"slot"`
	Name      string                `json:"name"`
	Backup    string                `json:"backup,omitempty"`
	Actions   []repair.RepairAction `json:"actions"`

	PreImageSize       int `json:"pre_image_size"`
	PreImageCompressed int `json:"pre_image_compressed"`
}

// Journal is a pebble-backed run log.
type Journal struct {
	db     *pebble.DB
	logger *slog.Logger
}

// Open opens or creates the journal in dir
func Open(dir string, logger *slog.Logger) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", dir)
	}
	return &Journal{db: db, logger: logging.OrNop(logger)}, nil
}

func entryKey(id ksuid.KSUID) []byte    { return append([]byte(entryPrefix), id.Bytes()...) }
func preImageKey(id ksuid.KSUID) []byte { return append([]byte(preImagePrefix), id.Bytes()...) }

// Record stores e with a fresh id and the compressed slot pre-image. The
// entry and its pre-image are committed together.
func (j *Journal) Record(e Entry, preImage []byte) (ksuid.KSUID, error) {
	e.ID = ksuid.New()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = e.ID.Time()
	}

	packed, err := zstd.CompressLevel(nil, preImage, zstd.BestSpeed)
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "compress pre-image")
	}
	e.PreImageSize = len(preImage)
	e.PreImageCompressed = len(packed)

	meta, err := json.Marshal(e)
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "encode journal entry")
	}

	b := j.db.NewBatch()
	defer b.Close()
	if err := b.Set(entryKey(e.ID), meta, nil); err != nil {
		return ksuid.Nil, err
	}
	if err := b.Set(preImageKey(e.ID), packed, nil); err != nil {
		return ksuid.Nil, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return ksuid.Nil, errors.Wrap(err, "commit journal entry")
	}

	j.logger.Info("journal.record",
		slog.String("run", e.ID.String()),
		slog.Int("slot", e.Slot),
		slog.Int("actions", len(e.Actions)),
		slog.Int("pre_image_bytes", e.PreImageCompressed),
	)
	return e.ID, nil
}

// Get reads one entry
func (j *Journal) Get(id ksuid.KSUID) (*Entry, error) {
	data, closer, err := j.db.Get(entryKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrap(ErrNotFound, id.String())
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrapf(err, "decode journal entry %s", id)
	}
	return &e, nil
}

// PreImage returns the decompressed slot bytes saved with run id
func (j *Journal) PreImage(id ksuid.KSUID) ([]byte, error) {
	data, closer, err := j.db.Get(preImageKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrap(ErrNotFound, id.String())
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out, err := zstd.Decompress(nil, data)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress pre-image %s", id)
	}
	return out, nil
}

// List returns every entry, oldest first. Ids sort by creation time.
func (j *Journal) List() ([]Entry, error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(entryPrefix),
		UpperBound: []byte("run0"), // '0' follows '/'
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, errors.Wrapf(err, "decode journal entry %x", iter.Key())
		}
		out = append(out, e)
	}
	return out, iter.Error()
}

// Delete removes a run and its pre-image
func (j *Journal) Delete(id ksuid.KSUID) error {
	b := j.db.NewBatch()
	defer b.Close()
	if err := b.Delete(entryKey(id), nil); err != nil {
		return err
	}
	if err := b.Delete(preImageKey(id), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}
