package session

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"auction-harvester/extraction"
)

const (
	DefaultBaseURL    = "https://subastas.boe.es"
	DefaultSearchPath = "/subastas_ava.php"

	LocalityField     = "BIEN.LOCALIDAD"
	SearchButtonLabel = "Buscar"
	NextPageLabel     = "Pág. siguiente"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	defaultTimeout   = 30 * time.Second
)

var tracer = otel.Tracer("auction-harvester/session")

type BOEOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// BOEDriver drives the BOE auction portal over plain HTTP, keeping cookies
// for the lifetime of the session.
type BOEDriver struct {
	base      *url.URL
	userAgent string
	timeout   time.Duration

	http    *resty.Client
	current *loadedPage
	results *loadedPage
	form    *searchForm
}

type loadedPage struct {
	url *url.URL
	doc *goquery.Document
}

type searchForm struct {
	action   *url.URL
	method   string
	values   url.Values
	locality string // submitted name of the locality field
}

func NewBOEDriver(opts BOEOptions) (*BOEDriver, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", baseURL)
	}

	d := &BOEDriver{
		base:      base,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
	}
	if d.userAgent == "" {
		d.userAgent = defaultUserAgent
	}
	if d.timeout <= 0 {
		d.timeout = defaultTimeout
	}
	return d, nil
}

// SearchURL is the entry point of the advanced search form.
func (d *BOEDriver) SearchURL() string {
	return SearchURL(d.base.String())
}

func (d *BOEDriver) Open(ctx context.Context) error {
	_, span := tracer.Start(ctx, "session.Open")
	defer span.End()

	jar, err := cookiejar.New(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cookie jar")
		return sessionErr("open", "", err)
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", d.userAgent)
	client.SetHeader("accept-language", "es-ES,es;q=0.9")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(d.base.Hostname()))
	client.SetTimeout(d.timeout)

	d.http = client
	d.current = nil
	d.results = nil
	d.form = nil
	return nil
}

func (d *BOEDriver) Close(ctx context.Context) error {
	_, span := tracer.Start(ctx, "session.Close")
	defer span.End()

	if d.http != nil {
		d.http.GetClient().CloseIdleConnections()
	}
	d.http = nil
	d.current = nil
	d.results = nil
	d.form = nil
	return nil
}

func (d *BOEDriver) Navigate(ctx context.Context, rawURL string) error {
	target, err := d.resolve(d.base, rawURL)
	if err != nil {
		return sessionErr("navigate", rawURL, err)
	}
	page, err := d.load(ctx, "navigate", http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	d.current = page
	d.form = nil
	return nil
}

func (d *BOEDriver) ApplyLocalityFilter(ctx context.Context, value string) error {
	_, span := tracer.Start(ctx, "session.ApplyLocalityFilter", trace.WithAttributes(
		attribute.String("locality", value),
	))
	defer span.End()

	if d.http == nil {
		return sessionErr("apply filter", "", ErrNotOpen)
	}
	if d.current == nil {
		return sessionErr("apply filter", "", ErrNoForm)
	}

	form, err := parseSearchForm(d.current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find search form")
		return sessionErr("apply filter", d.current.url.String(), err)
	}
	form.values.Set(form.locality, value)
	d.form = form
	return nil
}

func (d *BOEDriver) SubmitSearch(ctx context.Context) error {
	if d.http == nil {
		return sessionErr("submit", "", ErrNotOpen)
	}
	form := d.form
	if form == nil {
		if d.current == nil {
			return sessionErr("submit", "", ErrNoForm)
		}
		var err error
		form, err = parseSearchForm(d.current)
		if err != nil {
			return sessionErr("submit", d.current.url.String(), err)
		}
	}

	page, err := d.load(ctx, "submit", form.method, form.action, form.values)
	if err != nil {
		return err
	}
	d.current = page
	d.results = page
	d.form = nil
	return nil
}

func (d *BOEDriver) HasNextPage(ctx context.Context) (bool, error) {
	if d.http == nil {
		return false, sessionErr("next page", "", ErrNotOpen)
	}
	if d.results == nil {
		return false, sessionErr("next page", "", ErrNoResults)
	}
	_, ok := findLink(d.results.doc, NextPageLabel)
	return ok, nil
}

func (d *BOEDriver) AdvancePage(ctx context.Context) error {
	if d.http == nil {
		return sessionErr("advance", "", ErrNotOpen)
	}
	if d.results == nil {
		return sessionErr("advance", "", ErrNoResults)
	}
	href, ok := findLink(d.results.doc, NextPageLabel)
	if !ok {
		return sessionErr("advance", d.results.url.String(), ErrNoNextPage)
	}
	target, err := d.resolve(d.results.url, href)
	if err != nil {
		return sessionErr("advance", href, err)
	}

	page, err := d.load(ctx, "advance", http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	d.current = page
	d.results = page
	return nil
}

func (d *BOEDriver) CurrentPageContent(ctx context.Context) (*extraction.PageContent, error) {
	if d.http == nil {
		return nil, sessionErr("read page", "", ErrNotOpen)
	}
	if d.current == nil {
		return nil, sessionErr("read page", "", extraction.ErrPageUnavailable)
	}
	return toPageContent(d.current.url, d.current.doc), nil
}

func (d *BOEDriver) OpenTab(ctx context.Context, label string) (bool, error) {
	if d.http == nil {
		return false, sessionErr("open tab", "", ErrNotOpen)
	}
	if d.current == nil {
		return false, sessionErr("open tab", "", extraction.ErrPageUnavailable)
	}

	href, ok := findLink(d.current.doc, label)
	if !ok {
		return false, nil
	}
	// in-page tabs are already part of the loaded document
	if strings.HasPrefix(href, "#") {
		return true, nil
	}

	target, err := d.resolve(d.current.url, href)
	if err != nil {
		return false, sessionErr("open tab", href, err)
	}
	page, err := d.load(ctx, "open tab", http.MethodGet, target, nil)
	if err != nil {
		return false, err
	}
	d.current = page
	return true, nil
}

func (d *BOEDriver) resolve(base *url.URL, ref string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(parsed), nil
}

func (d *BOEDriver) load(ctx context.Context, op, method string, target *url.URL, form url.Values) (*loadedPage, error) {
	ctx, span := tracer.Start(ctx, "session."+op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("url", target.String()),
	))
	defer span.End()

	if d.http == nil {
		return nil, sessionErr(op, target.String(), ErrNotOpen)
	}

	req := d.http.R().SetContext(ctx)
	if form != nil {
		if method == http.MethodPost {
			req.SetFormDataFromValues(form)
		} else {
			req.SetQueryParamsFromValues(form)
		}
	}

	res, err := req.Execute(method, target.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, sessionErr(op, target.String(), err)
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, sessionErr(op, target.String(), err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, sessionErr(op, target.String(), fmt.Errorf("parse html: %w", err))
	}

	final := target
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		final = res.RawResponse.Request.URL
	}
	return &loadedPage{url: final, doc: doc}, nil
}

// parseSearchForm collects the current values of the form holding the
// locality field, including hidden inputs and the search button.
func parseSearchForm(page *loadedPage) (*searchForm, error) {
	field := page.doc.Find("input, select, textarea").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("name", "") == LocalityField || s.AttrOr("id", "") == LocalityField
	}).First()
	if field.Length() == 0 {
		return nil, ErrNoForm
	}
	formSel := field.Closest("form")
	if formSel.Length() == 0 {
		return nil, ErrNoForm
	}

	action, err := url.Parse(strings.TrimSpace(formSel.AttrOr("action", "")))
	if err != nil {
		return nil, fmt.Errorf("parse form action: %w", err)
	}
	form := &searchForm{
		action:   page.url.ResolveReference(action),
		method:   strings.ToUpper(formSel.AttrOr("method", http.MethodGet)),
		values:   url.Values{},
		locality: field.AttrOr("name", LocalityField),
	}
	if form.method != http.MethodPost {
		form.method = http.MethodGet
	}

	formSel.Find("input").Each(func(_ int, in *goquery.Selection) {
		name := in.AttrOr("name", "")
		if name == "" {
			return
		}
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); !checked {
				return
			}
			form.values.Add(name, in.AttrOr("value", "on"))
		default:
			form.values.Add(name, in.AttrOr("value", ""))
		}
	})
	formSel.Find("select").Each(func(_ int, sel *goquery.Selection) {
		name := sel.AttrOr("name", "")
		if name == "" {
			return
		}
		opt := sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = sel.Find("option").First()
		}
		if opt.Length() == 0 {
			return
		}
		form.values.Add(name, opt.AttrOr("value", strings.TrimSpace(opt.Text())))
	})
	formSel.Find("textarea").Each(func(_ int, ta *goquery.Selection) {
		if name := ta.AttrOr("name", ""); name != "" {
			form.values.Add(name, ta.Text())
		}
	})

	button := formSel.Find(`input[type="submit"]`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("value", "") == SearchButtonLabel
	}).First()
	if name := button.AttrOr("name", ""); name != "" {
		form.values.Set(name, SearchButtonLabel)
	}
	return form, nil
}
