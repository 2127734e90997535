package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/spreadbot/config"
	"github.com/alejandrodnm/spreadbot/internal/adapters/notify"
	"github.com/alejandrodnm/spreadbot/internal/adapters/opinion"
	"github.com/alejandrodnm/spreadbot/internal/adapters/storage"
	"github.com/alejandrodnm/spreadbot/internal/ports"
)

const (
	reportCycles = 20
	reportWindow = 24 * time.Hour
)

// runReport imprime los últimos ciclos y las órdenes del último día.
func runReport(ctx context.Context, dsn string, table bool) error {
	if dsn == "" {
		return errors.New("journal disabled (storage.journal_dsn is empty)")
	}
	store, err := storage.NewSQLiteJournal(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	cycles, err := store.RecentCycles(ctx, reportCycles)
	if err != nil {
		return err
	}
	orders, err := store.OrdersSince(ctx, time.Now().Add(-reportWindow))
	if err != nil {
		return err
	}
	notify.NewConsole(table).PrintJournal(cycles, orders)
	return nil
}

// runCancel cancela todas las órdenes abiertas. Sigue aunque alguna falle.
func runCancel(ctx context.Context, ex ports.Exchange) error {
	orders, err := ex.FetchOpenOrders(ctx)
	if err != nil {
		return err
	}
	var failed int
	for _, o := range orders {
		if err := ex.CancelOrder(ctx, o.OrderID); err != nil {
			slog.Error("cancel order failed", "order_id", o.OrderID, "err", err)
			failed++
			continue
		}
		slog.Info("order cancelled", "order_id", o.OrderID, "market_id", o.MarketID, "side", o.Side)
	}
	slog.Info("cancel complete", "orders", len(orders), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d cancellations failed", failed, len(orders))
	}
	return nil
}

// checkChain verifica el chain id del RPC y registra el colateral de la multisig.
func checkChain(ctx context.Context, api config.APIConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	chain, err := opinion.DialChain(ctx, api.RPCURL)
	if err != nil {
		return err
	}
	defer chain.Close()

	if err := chain.VerifyChainID(ctx, api.ChainID); err != nil {
		return err
	}
	if api.CollateralAddr == "" || api.MultiSigAddr == "" {
		return nil
	}
	bal, err := chain.TokenBalance(ctx, api.CollateralAddr, api.MultiSigAddr)
	if err != nil {
		slog.Warn("collateral balance unavailable", "err", err)
		return nil
	}
	slog.Info("on-chain collateral", "holder", api.MultiSigAddr, "balance", bal.StringFixed(4))
	return nil
}
