package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Client is a minimal Discord REST client with per-request timeouts and a
// bounded retry budget for transient failures.
type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	logger     *slog.Logger
}

// ClientConfig collects the dependencies for constructing a Client.
type ClientConfig struct {
	BaseURL        string
	BotToken       string
	RequestTimeout time.Duration
	MaxRetries     int
	Logger         *slog.Logger
	HTTPClient     *http.Client
}

// NewClient constructs a Client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		botToken:   cfg.BotToken,
		httpClient: httpClient,
		timeout:    timeout,
		maxRetries: retries,
		logger:     logger,
	}
}

type userGuild struct {
	ID          string `json:"id"`
	Permissions string `json:"permissions"`
}

type guildMember struct {
	Roles []string `json:"roles"`
}

// CheckPermissions reports the principal's standing on a guild using their
// OAuth access token: membership, held role ids and whether the guild grants
// them the native ADMINISTRATOR permission.
func (c *Client) CheckPermissions(ctx context.Context, accessToken, guildID string) (PermissionSummary, error) {
	var guilds []userGuild
	status, err := c.doJSON(ctx, "/users/@me/guilds", "Bearer "+accessToken, &guilds)
	if err != nil {
		return PermissionSummary{}, err
	}
	if status == http.StatusUnauthorized {
		return PermissionSummary{}, nil
	}
	if status != http.StatusOK {
		return PermissionSummary{}, fmt.Errorf("discord: list user guilds: status %d", status)
	}

	var summary PermissionSummary
	for _, g := range guilds {
		if g.ID != guildID {
			continue
		}
		summary.IsMember = true
		perms, parseErr := strconv.ParseUint(g.Permissions, 10, 64)
		if parseErr != nil {
			return PermissionSummary{}, fmt.Errorf("discord: parse permissions %q: %w", g.Permissions, parseErr)
		}
		summary.HasAdministrator = perms&permAdministrator != 0
		break
	}
	if !summary.IsMember {
		return summary, nil
	}

	var member guildMember
	status, err = c.doJSON(ctx, "/users/@me/guilds/"+guildID+"/member", "Bearer "+accessToken, &member)
	if err != nil {
		return PermissionSummary{}, err
	}
	switch status {
	case http.StatusOK:
		summary.RoleIDs = member.Roles
	case http.StatusNotFound:
		// The guild list and the member endpoint disagree; trust the
		// narrower answer.
		return PermissionSummary{}, nil
	default:
		return PermissionSummary{}, fmt.Errorf("discord: guild member: status %d", status)
	}
	return summary, nil
}

// ListRoles fetches every role on a guild using the bot token.
func (c *Client) ListRoles(ctx context.Context, guildID string) ([]Role, error) {
	var roles []Role
	status, err := c.doJSON(ctx, "/guilds/"+guildID+"/roles", "Bot "+c.botToken, &roles)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("discord: list roles: status %d", status)
	}
	return roles, nil
}

// ListChannels fetches every channel on a guild using the bot token.
func (c *Client) ListChannels(ctx context.Context, guildID string) ([]Channel, error) {
	var channels []Channel
	status, err := c.doJSON(ctx, "/guilds/"+guildID+"/channels", "Bot "+c.botToken, &channels)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("discord: list channels: status %d", status)
	}
	return channels, nil
}

// ListMembers pages through a guild's member list using the bot token.
func (c *Client) ListMembers(ctx context.Context, guildID string) ([]Member, error) {
	const pageSize = 1000
	var (
		members []Member
		after   string
	)
	for {
		path := "/guilds/" + guildID + "/members?limit=" + strconv.Itoa(pageSize)
		if after != "" {
			path += "&after=" + after
		}
		var page []Member
		status, err := c.doJSON(ctx, path, "Bot "+c.botToken, &page)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("discord: list members: status %d", status)
		}
		members = append(members, page...)
		if len(page) < pageSize {
			return members, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// doJSON issues a GET with retries on transport errors and 5xx responses.
// Non-5xx statuses are returned to the caller for interpretation.
func (c *Client) doJSON(ctx context.Context, path, authorization string, target any) (int, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
		}
		status, err := c.doOnce(ctx, path, authorization, target)
		if err != nil {
			lastErr = err
			c.logger.Warn("discord request failed",
				slog.String("path", path),
				slog.Int("attempt", attempt+1),
				slog.Any("error", err))
			continue
		}
		if status >= 500 {
			lastErr = fmt.Errorf("discord: %s: status %d", path, status)
			continue
		}
		return status, nil
	}
	return 0, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, lastErr)
}

func (c *Client) doOnce(ctx context.Context, path, authorization string, target any) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	if res.StatusCode == http.StatusOK && target != nil {
		if err := json.NewDecoder(res.Body).Decode(target); err != nil {
			return 0, fmt.Errorf("discord: decode %s: %w", path, err)
		}
	}
	return res.StatusCode, nil
}
