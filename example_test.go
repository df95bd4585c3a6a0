package canon_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/canon"
	"github.com/aretw0/canon/pkg/world"
)

// Example_basic seeds an in-memory world, registers two domains and lists them.
func Example_basic() {
	svc, err := canon.New("", canon.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	ctx := context.Background()
	if _, err := svc.Seed(ctx, "An example world"); err != nil {
		log.Fatal(err)
	}

	for _, in := range []world.DomainInput{
		{ID: "identity", Name: "Identity"},
		{ID: "memory", Name: "Memory", Description: "What the world remembers"},
	} {
		if _, err := svc.CreateDomain(ctx, in); err != nil {
			log.Fatal(err)
		}
	}

	domains, err := svc.ListDomains(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, d := range domains {
		fmt.Printf("%d %s %s %s\n", d.Order, d.ID, d.Status, d.Version)
	}
	// Output:
	// 1 identity open 0.1.0
	// 2 memory open 0.1.0
}

// Example_snapshots seals a version, edits the world and restores it.
func Example_snapshots() {
	svc, err := canon.New("", canon.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	ctx := context.Background()
	if _, err := svc.Seed(ctx, ""); err != nil {
		log.Fatal(err)
	}
	if _, err := svc.PutNamed(ctx, "thesis", canon.Document{"claim": "ambient computing"}); err != nil {
		log.Fatal(err)
	}

	res, err := svc.CreateSnapshot(ctx, "0.1.0", "first cut")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Path)

	if _, err := svc.PutNamed(ctx, "thesis", canon.Document{"claim": "rewritten"}); err != nil {
		log.Fatal(err)
	}
	if err := svc.RestoreSnapshot(ctx, "0.1.0"); err != nil {
		log.Fatal(err)
	}

	thesis, err := svc.GetNamed(ctx, "thesis")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(thesis["claim"])
	// Output:
	// versions/v0.1.0
	// ambient computing
}
