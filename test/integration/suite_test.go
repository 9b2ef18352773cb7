//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// testContext holds state shared across step definitions within a scenario.
type testContext struct {
	dir      string
	features map[string]bool
	remote   *fakeRemote
	remoteTS *httptest.Server
	stack    *stack

	client       *http.Client
	response     *http.Response
	responseBody []byte
}

// reset tears down the previous scenario's service and response state.
func (tc *testContext) reset() {
	if tc.stack != nil {
		tc.stack.Close()
	}

	if tc.remoteTS != nil {
		tc.remoteTS.Close()
	}

	if tc.dir != "" {
		_ = os.RemoveAll(tc.dir)
	}

	*tc = testContext{}
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &testContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^strict import is enabled$`, tc.strictImportIsEnabled)
	ctx.Step(`^a fresh quotekeeper service$`, tc.aFreshService)
	ctx.Step(`^the service restarts$`, tc.theServiceRestarts)
	ctx.Step(`^the remote source offers "([^"]*)"$`, tc.theRemoteSourceOffers)
	ctx.Step(`^the remote source is down$`, tc.theRemoteSourceIsDown)
	ctx.Step(`^I request GET "([^"]*)"$`, tc.iRequestGET)
	ctx.Step(`^I send (POST|PUT|DELETE) "([^"]*)"$`, tc.iSend)
	ctx.Step(`^I send (POST|PUT|DELETE) "([^"]*)" with body:$`, tc.iSendWithBody)
	ctx.Step(`^the response status should be (\d+)$`, tc.theResponseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.theResponseShouldContain)
	ctx.Step(`^the response header "([^"]*)" should contain "([^"]*)"$`, tc.theResponseHeaderShouldContain)
	ctx.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, tc.theJSONFieldShouldBe)
	ctx.Step(`^the quote list should have (\d+) quotes$`, tc.theQuoteListShouldHave)
}

// strictImportIsEnabled flips the flag, restarting a running service so it
// picks the flag up.
func (tc *testContext) strictImportIsEnabled() error {
	tc.features = map[string]bool{ports.FlagStrictImport: true}

	if tc.stack == nil {
		return nil
	}

	return tc.theServiceRestarts()
}

func (tc *testContext) aFreshService() error {
	dir, err := os.MkdirTemp("", "quotekeeper-bdd-*")
	if err != nil {
		return err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}

	tc.dir = dir
	tc.remote = newFakeRemote()
	tc.remoteTS = httptest.NewServer(tc.remote)
	tc.client = &http.Client{Jar: jar, Timeout: 10 * time.Second}

	return tc.start()
}

func (tc *testContext) start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := startStack(ctx, filepath.Join(tc.dir, "quotes.db"), tc.remoteTS.URL, tc.features)
	if err != nil {
		return fmt.Errorf("starting service: %w", err)
	}

	tc.stack = s

	return nil
}

func (tc *testContext) theServiceRestarts() error {
	if tc.stack == nil {
		return errors.New("service is not running")
	}

	tc.stack.Close()
	tc.stack = nil

	return tc.start()
}

func (tc *testContext) theRemoteSourceOffers(titles string) error {
	tc.remote.SetTitles(strings.Split(titles, "|")...)
	return nil
}

func (tc *testContext) theRemoteSourceIsDown() error {
	tc.remote.failing.Store(true)
	return nil
}

func (tc *testContext) iRequestGET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *testContext) iSend(method, path string) error {
	return tc.do(method, path, nil)
}

func (tc *testContext) iSendWithBody(method, path string, body *godog.DocString) error {
	return tc.do(method, path, strings.NewReader(body.Content))
}

func (tc *testContext) do(method, path string, body io.Reader) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, tc.stack.URL()+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	tc.response = resp

	tc.responseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

func (tc *testContext) theResponseStatusShouldBe(expectedCode int) error {
	if tc.response == nil {
		return errors.New("no response received")
	}

	if tc.response.StatusCode != expectedCode {
		return fmt.Errorf("expected status %d, got %d. Body: %s",
			expectedCode, tc.response.StatusCode, string(tc.responseBody))
	}

	return nil
}

func (tc *testContext) theResponseShouldContain(text string) error {
	if !bytes.Contains(tc.responseBody, []byte(text)) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, tc.responseBody)
	}

	return nil
}

func (tc *testContext) theResponseHeaderShouldContain(name, text string) error {
	if tc.response == nil {
		return errors.New("no response received")
	}

	if got := tc.response.Header.Get(name); !strings.Contains(got, text) {
		return fmt.Errorf("header %s = %q, want it to contain %q", name, got, text)
	}

	return nil
}

// theJSONFieldShouldBe walks a dotted path through the response object.
func (tc *testContext) theJSONFieldShouldBe(path, expected string) error {
	var doc any
	if err := json.Unmarshal(tc.responseBody, &doc); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}

	cur := doc
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %v is not an object", key, cur)
		}

		if cur, ok = obj[key]; !ok {
			return fmt.Errorf("field %q missing in %s", path, tc.responseBody)
		}
	}

	if got := fmt.Sprint(cur); got != expected {
		return fmt.Errorf("field %q = %q, want %q", path, got, expected)
	}

	return nil
}

func (tc *testContext) theQuoteListShouldHave(n int) error {
	if got := tc.stack.book.Len(); got != n {
		return fmt.Errorf("quote list has %d quotes, want %d", got, n)
	}

	return nil
}

// TestFeatures runs the GoDog BDD test suite.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
