package main

import (
	"context"
	"time"
)

func (srv *Server) updateLedgerGauges(ctx context.Context) error {
	st, err := srv.engine.Status(ctx)
	if err != nil {
		return err
	}
	ledgerSize.WithLabelValues("admins").Set(float64(st.Admins))
	ledgerSize.WithLabelValues("whitelist").Set(float64(st.Whitelist))
	ledgerSize.WithLabelValues("banned").Set(float64(st.Banned))
	ledgerSize.WithLabelValues("strikes").Set(float64(st.Strikes))
	ledgerSize.WithLabelValues("pending").Set(float64(st.Pending))
	ledgerSize.WithLabelValues("chats").Set(float64(st.Chats))
	return nil
}

// this method runs in a loop, sampling ledger sizes into prometheus gauges every 30 seconds
func (srv *Server) RunLedgerGauges(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := srv.updateLedgerGauges(ctx); err != nil {
				// don't return an error, just log, and attempt again on the next tick
				srv.logger.Error("failed to sample ledger sizes", "err", err)
			}
		}
	}
}
