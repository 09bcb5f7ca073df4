// Package identity talks to the hosted identity provider's backend API.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrUserNotFound = errors.New("identity user not found")
	ErrNoEmail      = errors.New("identity user has no email address")
)

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type User struct {
	ID                    string         `json:"id"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
}

// PrimaryEmail returns the address flagged primary, or the first one listed.
func (u *User) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{http: c}
}

func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetResult(&user).
		Get("/users/{id}")
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode())
	}
	return &user, nil
}

func (c *Client) PrimaryEmail(ctx context.Context, userID string) (string, error) {
	user, err := c.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	email := user.PrimaryEmail()
	if email == "" {
		return "", ErrNoEmail
	}
	return email, nil
}
