// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_postcall

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	internal_type "github.com/rapidaai/intake-relay/api/relay-api/internal/type"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

const airtableTimeout = 15 * time.Second

type airtableRequest struct {
	Fields   map[string]interface{} `json:"fields"`
	Typecast bool                   `json:"typecast"`
}

type airtableResponse struct {
	Id string `json:"id"`
}

type airtableStore struct {
	logger commons.Logger
	client *resty.Client
	cfg    *config.AirtableConfig
}

func NewAirtableRecordStore(logger commons.Logger, cfg *config.AirtableConfig) RecordStore {
	client := resty.New().
		SetBaseURL(cfg.ApiBaseUrl).
		SetTimeout(airtableTimeout).
		SetAuthToken(cfg.ApiKey)
	return &airtableStore{logger: logger, client: client, cfg: cfg}
}

func (s *airtableStore) Save(ctx context.Context, record *IntakeRecord) (string, error) {
	if s.cfg.ApiKey == "" || s.cfg.BaseId == "" || s.cfg.Table == "" {
		return "", fmt.Errorf("%w: airtable is not configured", internal_type.ErrRecordStoreWrite)
	}
	start := time.Now()
	defer func() { s.logger.Benchmark("airtableStore.Save", time.Since(start)) }()

	var out airtableResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(airtableRequest{Fields: record.AirtableFields(), Typecast: true}).
		SetResult(&out).
		Post(fmt.Sprintf("/v0/%s/%s", url.PathEscape(s.cfg.BaseId), url.PathEscape(s.cfg.Table)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", internal_type.ErrRecordStoreWrite, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: airtable responded %d: %s", internal_type.ErrRecordStoreWrite, resp.StatusCode(), resp.String())
	}
	s.logger.Infof("intake record %s created for conversation %s", out.Id, record.ConversationId)
	return out.Id, nil
}
