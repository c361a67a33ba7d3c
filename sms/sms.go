// Package sms abstracts out-of-band code delivery.
package sms

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var ErrDispatchFailed = errors.New("sms dispatch failed")

// Sender delivers a one-time code to a phone number.
type Sender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// LogSender logs codes instead of delivering them. Dev backend only: the
// codes end up in the log stream.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendCode(ctx context.Context, phone, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("sms code dispatched", zap.String("phone", phone), zap.String("code", code))
	return nil
}
