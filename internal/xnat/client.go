package xnat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to an XNAT archive over its REST API.
type Client struct {
	Host       string
	Username   string
	Password   string
	httpClient *http.Client
}

// Session is one imaging session (experiment) within a project.
type Session struct {
	ID        string `json:"ID"`
	Label     string `json:"label"`
	SubjectID string `json:"subject_ID"`
	Project   string `json:"project"`
}

// Assessor is one processing record attached to a session. Project,
// SubjectID and SessionLabel are filled in by Assessors so later calls can
// address the record without re-querying.
type Assessor struct {
	ID           string `json:"ID"`
	Label        string `json:"label"`
	ProcType     string `json:"proc:genprocdata/proctype"`
	ProcStatus   string `json:"proc:genprocdata/procstatus"`
	Project      string `json:"-"`
	SubjectID    string `json:"-"`
	SessionLabel string `json:"-"`
}

// resultSet is the envelope XNAT wraps every list response in.
type resultSet[T any] struct {
	ResultSet struct {
		Result []T `json:"Result"`
	} `json:"ResultSet"`
}

// NewClient creates a client for the given XNAT host. The host may be given
// with or without a scheme; https is assumed when none is present.
func NewClient(host, username, password string) *Client {
	return &Client{
		Host:     normalizeHost(host),
		Username: username,
		Password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func normalizeHost(host string) string {
	if host == "" {
		return host
	}
	// Strip any trailing slash so path joins stay predictable
	for len(host) > 0 && host[len(host)-1] == '/' {
		host = host[:len(host)-1]
	}
	if !strings.Contains(host, "://") {
		return "https://" + host
	}
	return host
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Host+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create XNAT request: %w", err)
	}
	req.SetBasicAuth(c.Username, c.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach XNAT host %s: %w", c.Host, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("XNAT returned status %d for %s %s: %s", resp.StatusCode, method, path, string(excerpt))
	}

	return resp, nil
}

// Sessions lists every imaging session in the given project.
func (c *Client) Sessions(ctx context.Context, project string) ([]Session, error) {
	path := fmt.Sprintf("/data/archive/projects/%s/experiments?format=json", url.PathEscape(project))

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rs resultSet[Session]
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		return nil, fmt.Errorf("failed to decode session list: %w", err)
	}

	return rs.ResultSet.Result, nil
}

// Assessors lists the processing records attached to one session.
func (c *Client) Assessors(ctx context.Context, project, subjectID, sessionLabel string) ([]Assessor, error) {
	path := fmt.Sprintf(
		"/data/archive/projects/%s/subjects/%s/experiments/%s/assessors?format=json&columns=ID,label,proc:genprocdata/proctype,proc:genprocdata/procstatus",
		url.PathEscape(project), url.PathEscape(subjectID), url.PathEscape(sessionLabel))

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rs resultSet[Assessor]
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		return nil, fmt.Errorf("failed to decode assessor list: %w", err)
	}

	assessors := rs.ResultSet.Result
	for i := range assessors {
		assessors[i].Project = project
		assessors[i].SubjectID = subjectID
		assessors[i].SessionLabel = sessionLabel
	}

	return assessors, nil
}

// UploadFile stores the contents of r as a file named name inside one of the
// assessor's named resources (e.g. EDITS).
func (c *Client) UploadFile(ctx context.Context, a Assessor, resource, name string, r io.Reader) error {
	path := fmt.Sprintf(
		"/data/archive/projects/%s/subjects/%s/experiments/%s/assessors/%s/resources/%s/files/%s?inbody=true",
		url.PathEscape(a.Project), url.PathEscape(a.SubjectID), url.PathEscape(a.SessionLabel),
		url.PathEscape(a.Label), url.PathEscape(resource), url.PathEscape(name))

	resp, err := c.do(ctx, http.MethodPut, path, r)
	if err != nil {
		return fmt.Errorf("failed to upload %s to %s/%s: %w", name, a.Label, resource, err)
	}
	resp.Body.Close()

	return nil
}

// SetAttribute sets a single schema attribute on the assessor. XNAT takes the
// attribute path and value as a query parameter on a PUT.
func (c *Client) SetAttribute(ctx context.Context, a Assessor, attr, value string) error {
	path := fmt.Sprintf(
		"/data/archive/projects/%s/subjects/%s/experiments/%s/assessors/%s?%s=%s",
		url.PathEscape(a.Project), url.PathEscape(a.SubjectID), url.PathEscape(a.SessionLabel),
		url.PathEscape(a.Label), url.QueryEscape(attr), url.QueryEscape(value))

	resp, err := c.do(ctx, http.MethodPut, path, nil)
	if err != nil {
		return fmt.Errorf("failed to set %s on %s: %w", attr, a.Label, err)
	}
	resp.Body.Close()

	return nil
}
