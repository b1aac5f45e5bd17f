package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

var errNotFound = errors.New("not found")

// Client talks to the catalog service over HTTP. All calls go through a
// circuit breaker so a down catalog fails fast instead of tying up request
// handlers; a 404 is an answer, not a breaker failure.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name: "catalog",
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
	})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("build catalog request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("catalog request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, errNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read catalog response: %w", err)
		}
		return body, nil
	})
}

func (c *Client) ResolveMenu(ctx context.Context, menuID uuid.UUID) (*Menu, error) {
	body, err := c.get(ctx, "/internal/menus/"+menuID.String())
	if errors.Is(err, errNotFound) {
		return nil, ErrMenuNotFound
	}
	if err != nil {
		return nil, err
	}

	var menu Menu
	if e2 := json.Unmarshal(body, &menu); e2 != nil {
		return nil, fmt.Errorf("decode menu: %w", e2)
	}
	return &menu, nil
}

func (c *Client) UserExists(ctx context.Context, userID int64) (bool, error) {
	_, err := c.get(ctx, fmt.Sprintf("/internal/users/%d", userID))
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
