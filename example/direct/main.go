// Command direct demonstrates acquiring a connection from a single-server
// DirectPool and running a query to completion. Not a CLI: a usage demo
// for the driver, grounded in the teacher's own example/postgres traffic
// generator (same signal.NotifyContext shutdown, same per-iteration
// ticker loop).
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
	"github.com/graphbolt/driver/pool"
	"github.com/graphbolt/driver/protocol"
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
		boltcfg.WithUserAgent("graphbolt-example/1.0"),
		boltcfg.WithMaxPoolSize(10),
	)

	addr := address.New("localhost", "7687")
	p := pool.New(addr, pool.Options{
		Dial:      cfg.Dialer(),
		UserAgent: cfg.UserAgent,
		Size:      cfg.MaxPoolSize,
	})
	defer p.Destroy(ctx)

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for i := 1; ; i++ {
		if err := runOneMatch(ctx, p, i); err != nil {
			log.Printf("match %d: %v", i, err)
		}

		select {
		case <-ctx.Done():
			fmt.Println("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

func runOneMatch(ctx context.Context, p *pool.Pool, i int) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer p.Release(ctx, conn)

	var nameParam value.Value
	nameParam.FormatString(fmt.Sprintf("person-%d", i))
	params := map[string]*value.Value{"name": &nameParam}

	runID, err := conn.Run(ctx, "MATCH (p:Person {name: $name}) RETURN p.name, p.age", params, protocol.TxMeta{Mode: protocol.ModeRead})
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

	rows := 0
	for {
		outcome, err := conn.Fetch(ctx, pullID)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		if outcome.Kind == protocol.FetchSummaryReady {
			break
		}
		rows++
		fields := conn.ResultFields()
		for col, v := range outcome.Record {
			name := fmt.Sprintf("col%d", col)
			if col < len(fields) {
				name = fields[col]
			}
			fmt.Printf("[%d] %s = %s\n", i, name, v.String())
		}
	}
	fmt.Printf("[%d] matched %d row(s)\n", i, rows)
	return nil
}
