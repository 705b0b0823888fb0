// Command routing demonstrates acquiring read and write connections from
// a RoutingPool against a causal cluster, and reacting to a forgotten
// writer by re-acquiring. Not a CLI: a usage demo for the driver.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/graphbolt/driver/address"
	"github.com/graphbolt/driver/boltcfg"
	"github.com/graphbolt/driver/boltconn"
	"github.com/graphbolt/driver/protocol"
	"github.com/graphbolt/driver/routing"
	"github.com/graphbolt/driver/value"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := boltcfg.New(
		boltcfg.WithScheme(boltcfg.SchemeNeo4j),
		boltcfg.WithUserAgent("graphbolt-example/1.0"),
	)

	p := routing.New(routing.Options{
		Seed:      address.New("localhost", "7687"),
		Dial:      cfg.Dialer(),
		UserAgent: cfg.UserAgent,
		PoolSize:  cfg.MaxPoolSize,
	})
	defer p.Destroy(ctx)

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for i := 1; ; i++ {
		if err := writeOne(ctx, p, i); err != nil {
			log.Printf("write %d: %v", i, err)
		}
		if err := readOne(ctx, p, i); err != nil {
			log.Printf("read %d: %v", i, err)
		}

		select {
		case <-ctx.Done():
			fmt.Println("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

func writeOne(ctx context.Context, p *routing.Pool, i int) error {
	conn, err := p.Acquire(ctx, protocol.ModeWrite)
	if err != nil {
		return fmt.Errorf("acquire write: %w", err)
	}
	defer p.Release(ctx, conn)

	var nameParam value.Value
	nameParam.FormatString(fmt.Sprintf("person-%d", i))
	params := map[string]*value.Value{"name": &nameParam}

	runID, err := conn.Run(ctx, "CREATE (p:Person {name: $name})", params, protocol.TxMeta{Mode: protocol.ModeWrite})
	if err != nil {
		forgetWriterOnLeaderChange(p, conn)
		return fmt.Errorf("run: %w", err)
	}
	if _, err := conn.FetchSummary(ctx, runID); err != nil {
		forgetWriterOnLeaderChange(p, conn)
		return fmt.Errorf("run summary: %w", err)
	}

	discardID, err := conn.DiscardAll(ctx)
	if err != nil {
		return fmt.Errorf("discard: %w", err)
	}
	if _, err := conn.FetchSummary(ctx, discardID); err != nil {
		return fmt.Errorf("discard summary: %w", err)
	}
	fmt.Printf("[%d] wrote person-%d via %s\n", i, i, conn.Address())
	return nil
}

func readOne(ctx context.Context, p *routing.Pool, i int) error {
	conn, err := p.Acquire(ctx, protocol.ModeRead)
	if err != nil {
		return fmt.Errorf("acquire read: %w", err)
	}
	defer p.Release(ctx, conn)

	runID, err := conn.Run(ctx, "MATCH (p:Person) RETURN count(p)", nil, protocol.TxMeta{Mode: protocol.ModeRead})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if _, err := conn.FetchSummary(ctx, runID); err != nil {
		return fmt.Errorf("run summary: %w", err)
	}

	pullID, err := conn.PullAll(ctx)
	if err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	for {
		outcome, err := conn.Fetch(ctx, pullID)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		if outcome.Kind == protocol.FetchSummaryReady {
			break
		}
		if len(outcome.Record) > 0 {
			fmt.Printf("[%d] count via %s = %s\n", i, conn.Address(), outcome.Record[0].String())
		}
	}
	return nil
}

// forgetWriterOnLeaderChange forgets conn's server from the writer role
// when its failure data reports a leader change, so the next write
// acquisition picks a different server.
func forgetWriterOnLeaderChange(p *routing.Pool, conn *boltconn.Connection) {
	code, ok := conn.FailureData()["code"]
	if !ok || code.Kind() != value.KindString {
		return
	}
	switch code.Str() {
	case "Neo.ClientError.Cluster.NotALeader", "Neo.ClientError.General.ForbiddenOnReadOnlyDatabase":
		p.ForgetWriter(conn.Address())
	}
}
