// client.go
package email

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"superstore-dashboard/src/storage"
)

const (
	maxFetchMessages   = 100            // cap per poll, keeps memory bounded
	fetchBufferSize    = 10             // imap fetch channel buffer
	recentMailDuration = 24 * time.Hour // how far back "new" reaches
)

// Mailbox is the slice of an IMAP account the ingestion flow needs.
type Mailbox interface {
	Connect() error
	Disconnect()
	FetchUnread() ([]*Message, error)
}

// Message is one fetched mail with its decoded headers and attachments.
type Message struct {
	UID         uint32
	Date        time.Time
	From        string
	Subject     string
	Attachments []*Attachment
}

// Attachment is one mail attachment.
type Attachment struct {
	Filename string
	Content  []byte
}

// Client is the IMAP implementation of Mailbox.
type Client struct {
	server    string
	username  string
	password  string
	client    *client.Client
	mu        sync.Mutex
	connected bool
}

// NewClient builds a client for an IMAP server address like
// "imap.example.com:993".
func NewClient(server, username, password string) *Client {
	return &Client{
		server:   server,
		username: username,
		password: password,
	}
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		if _, err := c.client.Capability(); err == nil {
			return nil
		}
		// stale connection, reset
		c.client.Logout()
		c.client = nil
		c.connected = false
	}

	cl, err := client.DialTLS(c.server, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to mail server: %w", err)
	}

	if err := cl.Login(c.username, c.password); err != nil {
		cl.Logout()
		return fmt.Errorf("mail login failed: %w", err)
	}

	c.client = cl
	c.connected = true
	return nil
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		c.client.Logout()
		c.client = nil
	}
	c.connected = false
}

// FetchUnread returns the unread messages of the last day, newest capped at
// maxFetchMessages.
func (c *Client) FetchUnread() ([]*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, fmt.Errorf("not connected to mail server")
	}

	if _, err := c.client.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("failed to select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Since = time.Now().Add(-recentMailDuration)

	ids, err := c.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("mail search failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxFetchMessages {
		ids = ids[:maxFetchMessages]
	}

	return c.fetchMessages(ids)
}

func (c *Client) fetchMessages(ids []uint32) ([]*Message, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{
		imap.FetchEnvelope,
		imap.FetchFlags,
		imap.FetchInternalDate,
		imap.FetchUid,
		section.FetchItem(),
	}

	messages := make(chan *imap.Message, fetchBufferSize)
	done := make(chan error, 1)

	go func() {
		done <- c.client.Fetch(seqset, items, messages)
	}()

	var out []*Message
	for msg := range messages {
		m, err := parseMessage(msg, section)
		if err != nil {
			continue // skip unparseable mails, the rest still count
		}
		out = append(out, m)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch mail bodies: %w", err)
	}

	return out, nil
}

func parseMessage(msg *imap.Message, section *imap.BodySectionName) (*Message, error) {
	r := msg.GetBody(section)
	if r == nil {
		return nil, fmt.Errorf("mail body is empty")
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	header := mr.Header
	date, _ := header.Date()

	m := &Message{
		UID:     msg.Uid,
		Date:    date,
		From:    decodeHeader(header.Get("From")),
		Subject: decodeHeader(header.Get("Subject")),
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		h, ok := p.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, err := h.Filename()
		if err != nil || filename == "" {
			continue
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, p.Body); err != nil {
			continue
		}
		m.Attachments = append(m.Attachments, &Attachment{
			Filename: decodeHeader(filename),
			Content:  buf.Bytes(),
		})
	}

	return m, nil
}

func decodeHeader(header string) string {
	decoder := mime.WordDecoder{}
	decoded, err := decoder.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// FetchLatestWorkbookMail polls the mailbox and returns the newest unread
// mail whose subject contains the keyword, or nil when there is none.
func FetchLatestWorkbookMail(mailbox Mailbox, subjectKeyword string, logger *storage.Logger) (*Message, error) {
	if err := mailbox.Connect(); err != nil {
		return nil, fmt.Errorf("mailbox connect failed: %w", err)
	}
	defer mailbox.Disconnect()

	messages, err := mailbox.FetchUnread()
	if err != nil {
		return nil, fmt.Errorf("mailbox fetch failed: %w", err)
	}
	if len(messages) == 0 {
		logger.Info("mailbox: no new mail")
		return nil, nil
	}

	var matching []*Message
	for _, m := range messages {
		if strings.Contains(m.Subject, subjectKeyword) {
			matching = append(matching, m)
		}
	}
	if len(matching) == 0 {
		logger.Info("mailbox: no mail matching subject keyword")
		return nil, nil
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].Date.After(matching[j].Date)
	})

	return matching[0], nil
}
