package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hongjun500/feedwatch/internal/observe"
	"github.com/hongjun500/feedwatch/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://api.battlemetrics.com"
	DefaultPageSize = 100
	maxBodySize     = 8 << 20
)

// Client queries the upstream server directory.
type Client struct {
	BaseURL  string
	PageSize int
	HTTP     *http.Client
	Log      *zap.Logger
}

func NewClient(baseURL string, pageSize int, timeout time.Duration) *Client {
	return &Client{
		BaseURL:  baseURL,
		PageSize: pageSize,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

type serverList struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name       string `json:"name"`
			Private    *bool  `json:"private"`
			RconActive *bool  `json:"rconActive"`
		} `json:"attributes"`
	} `json:"data"`
}

// FetchEligible returns the eligible servers visible to token. Every call produces a
// new snapshot; nothing from an earlier fetch carries over.
func (c *Client) FetchEligible(ctx context.Context, token string) (Snapshot, error) {
	start := time.Now()
	snap, err := c.fetch(ctx, token)
	observe.ObserveDirectoryFetch(time.Since(start), err)
	if err != nil {
		return Snapshot{}, err
	}
	logger.Or(c.Log).Sugar().Infow("directory_fetched",
		"count", snap.Len(),
		"ids", snap.IDs(),
	)
	return snap, nil
}

func (c *Client) fetch(ctx context.Context, token string) (Snapshot, error) {
	u, err := c.serversURL()
	if err != nil {
		return Snapshot{}, &FetchError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Snapshot{}, &FetchError{Err: err}
	}
	q := req.URL.Query()
	q.Set("access_token", token)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Snapshot{}, &FetchError{Err: withoutQuery(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Snapshot{}, &FetchError{StatusCode: resp.StatusCode}
	}

	var list serverList
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&list); err != nil {
		return Snapshot{}, &FetchError{Err: err}
	}

	rs := make([]Resource, 0, len(list.Data))
	for _, d := range list.Data {
		rs = append(rs, Resource{
			ID:         d.ID,
			Name:       d.Attributes.Name,
			Private:    d.Attributes.Private == nil || *d.Attributes.Private,
			RconActive: d.Attributes.RconActive != nil && *d.Attributes.RconActive,
		})
	}
	return NewSnapshot(rs), nil
}

// serversURL is the listing endpoint without credentials.
func (c *Client) serversURL() (*url.URL, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	size := c.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	u, err := url.Parse(strings.TrimRight(base, "/") + "/servers")
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("filter[rcon]", "true")
	q.Set("page[size]", strconv.Itoa(size))
	u.RawQuery = q.Encode()
	return u, nil
}

// withoutQuery drops the query string from a *url.Error so the access token never
// reaches an error message.
func withoutQuery(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		return &url.Error{Op: ue.Op, URL: "(redacted)", Err: ue.Err}
	}
	u.RawQuery = ""
	u.User = nil
	return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
}
