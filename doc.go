// Package canon is the composition root of the canon world store.
//
// A world is a small tree of YAML documents describing a fictional setting:
// metadata with a changelog, singleton documents (setting, thesis, devices,
// system architecture), a registry of domains each backed by its own
// document, and a ledger of open questions. Whole-world snapshots can be
// sealed under a version and restored later.
//
// Storage is pluggable through core.Storage. The default adapter keeps the
// documents as files, optionally versioned with git; sqlite, postgres,
// badger, s3 and an in-memory map are also available.
//
// Usage:
//
//	svc, err := canon.New("./world",
//		canon.WithAutoInit(true),
//		canon.WithLogger(logger),
//	)
//
//	_, err = svc.CreateDomain(ctx, world.DomainInput{ID: "identity", Name: "Identity"})
//	_, err = svc.CreateSnapshot(ctx, "0.1.0", "first cut")
package canon
