package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"devchallenge-api/models"
	"devchallenge-api/services"
)

// remoteAccount matches the JSON the auth gateway returns for each profile.
type remoteAccount struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type accountChangesResponse struct {
	Accounts []remoteAccount `json:"accounts"`
}

// AccountSyncWorker mirrors account profiles from the auth gateway into the
// local users table, so every authenticated request maps to a known row.
// Competition state is owned locally and never overwritten by a sync.
type AccountSyncWorker struct {
	users        *services.UserService
	interval     time.Duration
	baseURL      string
	serviceToken string
	httpClient   *http.Client

	lastSync time.Time
}

func NewAccountSyncWorker(users *services.UserService, gatewayBaseURL, serviceToken string) *AccountSyncWorker {
	return &AccountSyncWorker{
		users:        users,
		interval:     1 * time.Minute,
		baseURL:      gatewayBaseURL,
		serviceToken: serviceToken,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *AccountSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting account sync worker (gateway → users)…")
	go w.run(ctx)
}

func (w *AccountSyncWorker) run(ctx context.Context) {
	// Backfill everything on the first pass.
	if err := w.syncBatch(ctx); err != nil {
		log.Printf("❌ [SYNC] initial account sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx); err != nil {
				log.Printf("❌ [SYNC] account sync failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Account sync worker stopped")
			return
		}
	}
}

func (w *AccountSyncWorker) syncBatch(ctx context.Context) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid gateway URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath("/internal/accounts")
	q := endpoint.Query()
	q.Set("since", w.lastSync.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var changes accountChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return fmt.Errorf("decoding gateway response: %w", err)
	}
	if len(changes.Accounts) == 0 {
		return nil
	}

	var upserted int
	for _, acct := range changes.Accounts {
		user := models.User{
			ID:        acct.ID,
			Username:  acct.Username,
			Email:     acct.Email,
			AvatarURL: acct.AvatarURL,
			Bio:       acct.Bio,
		}
		if err := w.users.Upsert(&user); err != nil {
			log.Printf("❌ [SYNC] upserting account %s (%s): %v", acct.ID, acct.Username, err)
			continue
		}
		upserted++
		if acct.UpdatedAt.After(w.lastSync) {
			w.lastSync = acct.UpdatedAt
		}
	}
	log.Printf("✅ [SYNC] mirrored %d/%d accounts", upserted, len(changes.Accounts))
	return nil
}
