package shiftworkflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/solpercival/thoth/internal/config"
	"github.com/solpercival/thoth/internal/datereasoner"
	"github.com/solpercival/thoth/internal/shift"
	"github.com/solpercival/thoth/pkg/provider/browser"
	browsermock "github.com/solpercival/thoth/pkg/provider/browser/mock"
	"github.com/solpercival/thoth/pkg/provider/chat"
	chatmock "github.com/solpercival/thoth/pkg/provider/chat/mock"
	mailermock "github.com/solpercival/thoth/pkg/provider/mailer/mock"
)

func newReasoner(t *testing.T, jsonReply string) *datereasoner.Reasoner {
	t.Helper()
	chatProvider := &chatmock.Provider{
		CompleteResponse: &chat.CompletionResponse{Content: jsonReply},
	}
	today := time.Date(2025, 12, 16, 0, 0, 0, 0, time.Local)
	return datereasoner.New(chatProvider, today, time.Second, nil)
}

func staffRow() [][]string {
	return [][]string{{"st-1", "Ms. Alannah Courtnay", "alannah@example.com", "Rostering", "0431256441"}}
}

func TestLookup_HappyPathPopulatesResult(t *testing.T) {
	browserSess := &browsermock.Session{
		URL:  "https://example.com/dashboard",
		Rows: staffRow(),
	}
	browserProv := &browsermock.Provider{Session: browserSess}
	reasoner := newReasoner(t, `{"is_shift_query":true,"intent":"cancel","start":"2025-12-17","end":"2025-12-17","rationale":"tomorrow"}`)

	w := New(browserProv, &mailermock.Provider{}, reasoner, config.SiteConfig{BaseURL: "https://example.com"}, config.MailConfig{}, nil)

	result, err := w.Lookup(context.Background(), "0431256441", "cancel my shift tomorrow")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if result.Staff.FullName != "Alannah Courtnay" {
		t.Errorf("FullName = %q, want title stripped", result.Staff.FullName)
	}
	if result.Intent != shift.IntentCancel {
		t.Errorf("Intent = %q, want cancel", result.Intent)
	}
	wantStart := time.Date(2025, 12, 17, 0, 0, 0, 0, time.Local)
	if !result.Interval.Start.Equal(wantStart) {
		t.Errorf("Interval.Start = %v, want %v", result.Interval.Start, wantStart)
	}
}

func TestLookup_StaffNotFoundWhenGridNeverAppears(t *testing.T) {
	// WaitVisible is the only call shared between a successful cached-session
	// probe (which never invokes it) and the staff lookup, so a valid cached
	// session is required here to isolate the WaitVisibleErr to the staff
	// grid rather than also tripping the TOTP/landing waits inside a fresh
	// login.
	browserSess := &browsermock.Session{
		URL:            "https://example.com/dashboard",
		WaitVisibleErr: context.DeadlineExceeded,
	}
	browserProv := &browsermock.Provider{Session: browserSess}
	reasoner := newReasoner(t, `{}`)

	site := config.SiteConfig{BaseURL: "https://example.com", CookieDir: t.TempDir()}
	w := New(browserProv, &mailermock.Provider{}, reasoner, site, config.MailConfig{}, nil)
	if err := w.saveCachedCookies([]browser.Cookie{{Name: "session", Value: "abc"}}); err != nil {
		t.Fatalf("saveCachedCookies: %v", err)
	}

	_, err := w.Lookup(context.Background(), "0000000000", "what shifts do I have")
	if err == nil {
		t.Fatal("expected StaffNotFound error")
	}
	if !strings.Contains(err.Error(), ErrStaffNotFound.Error()) {
		t.Errorf("err = %v, want wrapping ErrStaffNotFound", err)
	}
}

func TestLookup_NoCookieDirConfiguredAlwaysLogsInFresh(t *testing.T) {
	browserSess := &browsermock.Session{
		URL:  "https://example.com/dashboard",
		Rows: staffRow(),
	}
	browserProv := &browsermock.Provider{Session: browserSess}
	reasoner := newReasoner(t, `{"is_shift_query":false,"intent":"view","start":"2025-12-16","end":"2025-12-23","rationale":"default"}`)

	w := New(browserProv, &mailermock.Provider{}, reasoner, config.SiteConfig{BaseURL: "https://example.com"}, config.MailConfig{}, nil)

	if _, err := w.Lookup(context.Background(), "0431256441", "what shifts do I have"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	found := false
	for _, c := range browserSess.FillCalls {
		if c.Selector == "#username" {
			found = true
		}
	}
	if !found {
		t.Error("expected a fresh login to fill #username when no cookie cache is configured")
	}
}

func TestLookup_ValidCachedCookiesSkipFreshLogin(t *testing.T) {
	browserSess := &browsermock.Session{
		URL:  "https://example.com/dashboard",
		Rows: staffRow(),
	}
	browserProv := &browsermock.Provider{Session: browserSess}
	reasoner := newReasoner(t, `{"is_shift_query":false,"intent":"view","start":"2025-12-16","end":"2025-12-23","rationale":"default"}`)

	site := config.SiteConfig{BaseURL: "https://example.com", CookieDir: t.TempDir()}
	w := New(browserProv, &mailermock.Provider{}, reasoner, site, config.MailConfig{}, nil)
	if err := w.saveCachedCookies([]browser.Cookie{{Name: "session", Value: "abc", Domain: "example.com", Path: "/"}}); err != nil {
		t.Fatalf("saveCachedCookies: %v", err)
	}

	if _, err := w.Lookup(context.Background(), "0431256441", "what shifts do I have"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	for _, c := range browserSess.FillCalls {
		if c.Selector == "#username" {
			t.Error("fresh login was attempted despite a valid cached session")
		}
	}
	if len(browserSess.JarCookies) != 1 || browserSess.JarCookies[0].Name != "session" {
		t.Errorf("JarCookies = %+v, want the restored cached cookie", browserSess.JarCookies)
	}
}

func TestLookup_CachedCookiesDiscardedOnLoginRedirect(t *testing.T) {
	browserSess := &browsermock.Session{
		URL:  "https://example.com/login",
		Rows: staffRow(),
	}
	browserProv := &browsermock.Provider{Session: browserSess}
	reasoner := newReasoner(t, `{"is_shift_query":false,"intent":"view","start":"2025-12-16","end":"2025-12-23","rationale":"default"}`)

	site := config.SiteConfig{BaseURL: "https://example.com", CookieDir: t.TempDir()}
	w := New(browserProv, &mailermock.Provider{}, reasoner, site, config.MailConfig{}, nil)
	if err := w.saveCachedCookies([]browser.Cookie{{Name: "session", Value: "stale"}}); err != nil {
		t.Fatalf("saveCachedCookies: %v", err)
	}

	if _, err := w.Lookup(context.Background(), "0431256441", "what shifts do I have"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	found := false
	for _, c := range browserSess.FillCalls {
		if c.Selector == "#username" {
			found = true
		}
	}
	if !found {
		t.Error("expected a fresh login after the cached session was redirected to the login page")
	}
}

func TestCancel_ComposesExactEmailLayout(t *testing.T) {
	mailProv := &mailermock.Provider{}
	w := New(&browsermock.Provider{}, mailProv, newReasoner(t, `{}`),
		config.SiteConfig{}, config.MailConfig{Sender: "noreply@example.com", Collector: "rostering@example.com"}, nil)

	staff := shift.Staff{ID: "st-1", FullName: "Alannah Courtnay", Email: "alannah@example.com"}
	sh := shift.Record{
		ShiftID:    "s123",
		ClientName: "ABC",
		Date:       time.Date(2025, 12, 17, 0, 0, 0, 0, time.Local),
		HasDate:    true,
		Time:       "14:00",
	}

	if err := w.Cancel(context.Background(), staff, sh, "I'm sick"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if len(mailProv.SendCalls) != 1 {
		t.Fatalf("SendCalls = %d, want 1", len(mailProv.SendCalls))
	}
	msg := mailProv.SendCalls[0].Msg
	if msg.Subject != defaultSubject {
		t.Errorf("Subject = %q, want %q", msg.Subject, defaultSubject)
	}
	wantBody := "Requested cancellation of shift.\n\n" +
		"    STAFF:\n" +
		"        · Name: Alannah Courtnay\n" +
		"        · ID: st-1\n" +
		"        · Email: alannah@example.com\n\n" +
		"    SHIFT(S):\n" +
		"        · ABC at 14:00 17-12-2025\n\n" +
		"    REASON:\n" +
		"        I'm sick\n\n" +
		"This is an auto-generated email. Please do not reply.\n"
	if msg.Body != wantBody {
		t.Errorf("Body =\n%q\nwant\n%q", msg.Body, wantBody)
	}
}

func TestCancel_OmitsReasonBlockWhenEmpty(t *testing.T) {
	mailProv := &mailermock.Provider{}
	w := New(&browsermock.Provider{}, mailProv, newReasoner(t, `{}`),
		config.SiteConfig{}, config.MailConfig{Sender: "noreply@example.com", Collector: "rostering@example.com"}, nil)

	staff := shift.Staff{ID: "st-1", FullName: "Alannah Courtnay", Email: "alannah@example.com"}
	sh := shift.Record{ClientName: "ABC", Time: "14:00", HasDate: true, Date: time.Date(2025, 12, 17, 0, 0, 0, 0, time.Local)}

	if err := w.Cancel(context.Background(), staff, sh, ""); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	body := mailProv.SendCalls[0].Msg.Body
	if strings.Contains(body, "REASON:") {
		t.Error("body contains REASON: block despite empty reason")
	}
}

func TestCancel_SubjectOverride(t *testing.T) {
	mailProv := &mailermock.Provider{}
	w := New(&browsermock.Provider{}, mailProv, newReasoner(t, `{}`),
		config.SiteConfig{}, config.MailConfig{SubjectOverride: "Custom Subject"}, nil)

	if err := w.Cancel(context.Background(), shift.Staff{}, shift.Record{}, ""); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := mailProv.SendCalls[0].Msg.Subject; got != "Custom Subject" {
		t.Errorf("Subject = %q, want override", got)
	}
}

func TestCancel_SendErrorWrapsSubmissionFailed(t *testing.T) {
	mailProv := &mailermock.Provider{SendErr: context.DeadlineExceeded}
	w := New(&browsermock.Provider{}, mailProv, newReasoner(t, `{}`),
		config.SiteConfig{}, config.MailConfig{}, nil)

	err := w.Cancel(context.Background(), shift.Staff{}, shift.Record{}, "")
	if err == nil || !strings.Contains(err.Error(), ErrSubmissionFailed.Error()) {
		t.Errorf("err = %v, want wrapping ErrSubmissionFailed", err)
	}
}

func TestStripTitle(t *testing.T) {
	cases := map[string]string{
		"Ms. Alannah Courtnay": "Alannah Courtnay",
		"Mr. John Smith":       "John Smith",
		"Dr. Jane Doe":         "Jane Doe",
		"Alannah Courtnay":     "Alannah Courtnay",
	}
	for in, want := range cases {
		if got := stripTitle(in); got != want {
			t.Errorf("stripTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterByInterval_DropsUnparseableAndOutOfRange(t *testing.T) {
	iv := shift.Interval{
		Start: time.Date(2025, 12, 17, 0, 0, 0, 0, time.Local),
		End:   time.Date(2025, 12, 17, 0, 0, 0, 0, time.Local),
	}
	records := []shift.Record{
		{ShiftID: "in-range", HasDate: true, Date: time.Date(2025, 12, 17, 0, 0, 0, 0, time.Local)},
		{ShiftID: "out-of-range", HasDate: true, Date: time.Date(2025, 12, 20, 0, 0, 0, 0, time.Local)},
		{ShiftID: "no-date", HasDate: false},
	}
	filtered := filterByInterval(records, iv)
	if len(filtered) != 1 || filtered[0].ShiftID != "in-range" {
		t.Errorf("filterByInterval = %+v, want only in-range", filtered)
	}
}

func TestParseShiftRow_UnparseableDateLeavesHasDateFalse(t *testing.T) {
	rec := parseShiftRow([]string{"s1", "ABC", "not-a-date", "14:00", "standard"})
	if rec.HasDate {
		t.Error("HasDate = true for unparseable date")
	}
}
