package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ipfs/go-cid"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/signing"
	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/types"
)

var (
	// ErrNotArchival is returned by Put for transactions that did not ask to be archived.
	ErrNotArchival = errors.New("archive: transaction is not archival")
	// ErrConflict is returned when a different transaction is already settled at
	// the same (sender, nonce).
	ErrConflict = errors.New("archive: conflicting certificate for sender and nonce")
	// ErrNotSettled is returned by Lookup when nothing is indexed.
	ErrNotSettled = errors.New("archive: no certificate for sender and nonce")
)

// Config controls which certificates the archive accepts.
type Config struct {
	// Quorum is the number of distinct validator signatures a certificate needs.
	Quorum types.Quorum
	// Committee lists the validators whose signatures count. It must be set
	// unless AllowAnyValidator is.
	Committee []address.ValidatorName
	// AllowAnyValidator counts signatures from any key. Anyone, the sender
	// included, can then certify a transaction; use only for testing.
	AllowAnyValidator bool
	// AllowNonArchival accepts certificates whose transaction has Archival unset.
	AllowNonArchival bool
}

// Validate reports settings under which no certificate check is meaningful.
func (c Config) Validate() error {
	if c.Quorum == 0 {
		return errs.New(errs.KindInvalidConfig, "SET-ARC-001", "archive: quorum must be at least 1")
	}
	if len(c.Committee) == 0 && !c.AllowAnyValidator {
		return errs.New(errs.KindInvalidConfig, "SET-ARC-002", "archive: no validator committee configured")
	}
	return nil
}

// Archive verifies and stores transaction certificates.
type Archive struct {
	cas     storage.CAS
	index   *Index
	cfg     Config
	certOps []signing.CertOption
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Archive)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(a *Archive) { a.logger = l } }

// WithMetrics records outcomes in m.
func WithMetrics(m *Metrics) Option { return func(a *Archive) { a.metrics = m } }

// New returns an archive storing objects in cas and settlements in index.
func New(cas storage.CAS, index *Index, cfg Config, opts ...Option) (*Archive, error) {
	if cas == nil || index == nil {
		return nil, errors.New("archive: storage and index are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Archive{cas: cas, index: index, cfg: cfg, logger: slog.Default()}
	if len(cfg.Committee) > 0 {
		a.certOps = append(a.certOps, signing.WithCommittee(cfg.Committee...))
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Verify runs every acceptance check Put applies, without storing anything.
func (a *Archive) Verify(cert types.TransactionCertificate) error {
	tx := cert.Transaction()
	if !tx.Archival && !a.cfg.AllowNonArchival {
		return ErrNotArchival
	}
	if err := signing.VerifyCertificate(cert, a.cfg.Quorum, a.certOps...); err != nil {
		return err
	}
	return signing.VerifyEnvelope(cert.Envelope)
}

// Put verifies cert, stores its canonical bytes and indexes it under the
// transaction's sender and nonce. Archiving the same transaction again returns
// the CID of the certificate indexed first, even if the new certificate carries
// a different set of validator signatures.
func (a *Archive) Put(ctx context.Context, cert types.TransactionCertificate) (cid.Cid, error) {
	started := time.Now()
	tx := cert.Transaction()
	log := a.logger.With("sender", tx.Sender.String(), "nonce", uint64(tx.Nonce))

	if err := a.Verify(cert); err != nil {
		a.metrics.observePut(OutcomeRejected, started)
		log.Warn("certificate rejected", "error", err)
		return cid.Undef, err
	}

	if existing, ok, err := a.index.Get(tx.Sender, tx.Nonce); err != nil {
		a.metrics.observePut(OutcomeError, started)
		return cid.Undef, err
	} else if ok {
		return a.resolveDuplicate(ctx, log, tx, existing, started)
	}

	data, id, err := cidutil.Canonical(cert)
	if err != nil {
		a.metrics.observePut(OutcomeError, started)
		return cid.Undef, err
	}
	stored, err := a.cas.Put(ctx, data)
	if err != nil {
		a.metrics.observePut(OutcomeError, started)
		log.Error("certificate store failed", "cid", id.String(), "error", err)
		return cid.Undef, fmt.Errorf("archive: store: %w", err)
	}
	if stored != id {
		a.metrics.observePut(OutcomeError, started)
		return cid.Undef, storage.ErrCIDMismatch
	}

	current, created, err := a.index.record(tx.Sender, tx.Nonce, id)
	if err != nil {
		a.metrics.observePut(OutcomeError, started)
		return cid.Undef, err
	}
	if !created {
		// Lost a race with a concurrent Put for the same settlement.
		return a.resolveDuplicate(ctx, log, tx, current, started)
	}

	a.metrics.observePut(OutcomeStored, started)
	log.Info("certificate archived", "cid", id.String(), "bytes", len(data), "signatures", len(cert.Signatures))
	return id, nil
}

func (a *Archive) resolveDuplicate(ctx context.Context, log *slog.Logger, tx types.Transaction, existing cid.Cid, started time.Time) (cid.Cid, error) {
	prev, err := a.Get(ctx, existing)
	if err != nil {
		a.metrics.observePut(OutcomeError, started)
		return cid.Undef, err
	}
	same, err := sameTransaction(prev.Transaction(), tx)
	if err != nil {
		a.metrics.observePut(OutcomeError, started)
		return cid.Undef, err
	}
	if !same {
		a.metrics.observePut(OutcomeConflict, started)
		log.Warn("conflicting certificate", "existing", existing.String())
		return cid.Undef, ErrConflict
	}
	a.metrics.observePut(OutcomeDuplicate, started)
	log.Debug("certificate already archived", "cid", existing.String())
	return existing, nil
}

func sameTransaction(a, b types.Transaction) (bool, error) {
	da, err := a.Digest()
	if err != nil {
		return false, err
	}
	db, err := b.Digest()
	if err != nil {
		return false, err
	}
	return da == db, nil
}

// Get loads and decodes the certificate stored under id.
func (a *Archive) Get(ctx context.Context, id cid.Cid) (types.TransactionCertificate, error) {
	data, err := a.cas.Get(ctx, id)
	if err != nil {
		return types.TransactionCertificate{}, err
	}
	cert, err := types.DecodeCertificate(data)
	if err != nil {
		return types.TransactionCertificate{}, fmt.Errorf("archive: object %s is not a certificate: %w", id, err)
	}
	return cert, nil
}

// Lookup returns the CID of the certificate settling (sender, nonce), or
// ErrNotSettled.
func (a *Archive) Lookup(_ context.Context, sender address.FastSetAddress, nonce types.Nonce) (cid.Cid, error) {
	id, ok, err := a.index.Get(sender, nonce)
	if err != nil {
		return cid.Undef, err
	}
	a.metrics.observeLookup(ok)
	if !ok {
		return cid.Undef, ErrNotSettled
	}
	return id, nil
}

// IsSettled reports whether a certificate for (sender, nonce) is archived and
// still present in storage.
func (a *Archive) IsSettled(ctx context.Context, sender address.FastSetAddress, nonce types.Nonce) (bool, error) {
	id, err := a.Lookup(ctx, sender, nonce)
	if errors.Is(err, ErrNotSettled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.cas.Has(ctx, id)
}

// Settlements lists every archived settlement of sender in nonce order.
func (a *Archive) Settlements(sender address.FastSetAddress) ([]Entry, error) {
	return a.index.Entries(sender)
}
