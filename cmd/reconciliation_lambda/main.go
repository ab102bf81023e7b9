package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/trade-sphere/pkg/config"
	"github.com/chris/trade-sphere/pkg/coordinator"
	"github.com/chris/trade-sphere/pkg/escrow"
	"github.com/chris/trade-sphere/pkg/events"
	dydbstore "github.com/chris/trade-sphere/pkg/storage/dynamodb"
)

// Auditor produces the per-asset custody reports.
type Auditor interface {
	Custody(ctx context.Context) ([]escrow.CustodyReport, error)
}

// Reconciler compares the vault balances with the escrow owed and raises an
// event for every asset that does not balance.
type Reconciler struct {
	Auditor Auditor
	Emitter events.Emitter
	Logger  *slog.Logger
	Now     func() time.Time
}

// HandleRequest is triggered by an EventBridge Schedule.
func (r *Reconciler) HandleRequest(ctx context.Context) error {
	r.Logger.Info("starting custody reconciliation")

	reports, err := r.Auditor.Custody(ctx)
	if err != nil {
		r.Logger.Error("failed to audit custody", "error", err)
		return err
	}

	imbalanced := 0
	for _, report := range reports {
		if report.Balanced {
			continue
		}
		imbalanced++
		r.Logger.Error("custody imbalance",
			"asset", report.Asset,
			"vault_balance", report.VaultBalance,
			"escrowed", report.Escrowed,
			"trades", report.Trades,
		)
		evt := events.New(events.TypeCustodyImbalanced, nil, map[string]string{
			"asset":         report.Asset,
			"vault_balance": strconv.FormatUint(report.VaultBalance, 10),
			"escrowed":      strconv.FormatUint(report.Escrowed, 10),
		}, r.Now())
		if err := r.Emitter.Emit(ctx, evt); err != nil {
			// Continue to the next asset, don't let one failure stop the whole audit.
			r.Logger.Error("failed to emit custody imbalance", "asset", report.Asset, "error", err)
		}
	}

	r.Logger.Info("custody reconciliation finished", "assets", len(reports), "imbalanced", imbalanced)
	if imbalanced > 0 {
		return fmt.Errorf("%d of %d assets are out of balance", imbalanced, len(reports))
	}
	return nil
}

func newReconciler(ctx context.Context) (*Reconciler, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.StorageBackend = config.BackendDynamoDB
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	store := dydbstore.New(dynamodb.NewFromConfig(awsCfg), dydbstore.Tables{
		Trades:   cfg.DynamoDB.TradesTable,
		Tokens:   cfg.DynamoDB.TokensTable,
		Wallets:  cfg.DynamoDB.WalletsTable,
		Ledger:   cfg.DynamoDB.LedgerTable,
		Counters: cfg.DynamoDB.CountersTable,
	})

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	c := coordinator.New(store, coordinator.Principals{
		Admin:    cfg.AdminPrincipal,
		Arbiter:  cfg.ArbiterPrincipal,
		Contract: cfg.ContractPrincipal,
	})
	c.SetLogger(logger)

	var emitter events.Emitter = events.NoopEmitter{}
	if cfg.SQSQueueURL != "" {
		emitter = events.NewSQSEmitter(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL)
	}

	return &Reconciler{
		Auditor: c,
		Emitter: emitter,
		Logger:  logger,
		Now:     time.Now,
	}, nil
}

func main() {
	r, err := newReconciler(context.Background())
	if err != nil {
		log.Fatalf("failed to initialise reconciliation: %v", err)
	}
	lambda.Start(r.HandleRequest)
}
