package services

import (
	"context"
	"log"
)

// AuditLog posts human-readable audit lines to a log channel. A nil AuditLog or empty surface only logs locally.
type AuditLog struct {
	gateway Gateway
	surface string
}

func NewAuditLog(gateway Gateway, surface string) *AuditLog {
	return &AuditLog{gateway: gateway, surface: surface}
}

func (a *AuditLog) Post(ctx context.Context, msg Message) {
	if a == nil || a.gateway == nil || a.surface == "" {
		return
	}
	if err := a.gateway.SendMessage(ctx, a.surface, msg); err != nil {
		log.Printf("⚠️ [AUDIT] Failed to post audit message: %v", err)
	}
}
