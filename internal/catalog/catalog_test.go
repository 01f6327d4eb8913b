package catalog_test

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/catalog"
	"github.com/shashiranjanraj/recordshop/internal/models"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/storage"
	"github.com/shashiranjanraj/recordshop/pkg/testkit"
)

type notified struct {
	mu      sync.Mutex
	updates [][2]int
}

func (n *notified) Notify(id, stock int) {
	n.mu.Lock()
	n.updates = append(n.updates, [2]int{id, stock})
	n.mu.Unlock()
}

func newClient(t *testing.T) (*catalog.Client, *testkit.MockTransport, *notified) {
	t.Helper()
	mt := testkit.NewMockTransport()
	t.Cleanup(mt.Install())
	n := &notified{}
	disk, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, disk.Put(context.Background(), "covers/blue.jpg", []byte("jpeg")))
	return catalog.New(pkghttp.NewClient("http://api.test/api/"), n, disk), mt, n
}

func TestListRecordsUnwrapsAndNotifies(t *testing.T) {
	c, mt, n := newClient(t)
	mt.On("GET", "records").Body(200, `{"$id":"1","$values":[
		{"idRecord":7,"titleRecord":"Blue Train","stock":3,"price":12.5},
		{"idRecord":8,"titleRecord":"Giant Steps","stock":0,"price":10}]}`)

	records, err := c.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Blue Train", records[0].Title)
	assert.Equal(t, [][2]int{{7, 3}, {8, 0}}, n.updates)
}

func TestRecordsByGroupShapes(t *testing.T) {
	cases := map[string]string{
		"bare":           `[{"idRecord":1,"titleRecord":"A","stock":2}]`,
		"values":         `{"$values":[{"idRecord":1,"titleRecord":"A","stock":2}]}`,
		"records array":  `{"nameGroup":"Coltrane","records":[{"idRecord":1,"titleRecord":"A","stock":2}]}`,
		"records values": `{"group":{"nameGroup":"Coltrane"},"records":{"$values":[{"idRecord":1,"titleRecord":"A","stock":2}]}}`,
		"records keyed":  `{"nameGroup":"Coltrane","records":{"x":{"idRecord":1,"titleRecord":"A","stock":2},"y":"junk"}}`,
		"single":         `{"idRecord":1,"titleRecord":"A","stock":2,"nameGroup":"Coltrane"}`,
		"object values":  `{"first":{"idRecord":1,"titleRecord":"A","stock":2},"count":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, mt, n := newClient(t)
			mt.On("GET", "groups/recordsByGroup/4").Body(200, body)

			records, err := c.RecordsByGroup(context.Background(), 4)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, 1, records[0].ID)
			assert.Equal(t, 2, records[0].Stock)
			assert.Equal(t, [][2]int{{1, 2}}, n.updates)
			if strings.Contains(body, "Coltrane") {
				assert.Equal(t, "Coltrane", records[0].GroupName)
			}
		})
	}
}

func TestGroupNameShapes(t *testing.T) {
	cases := map[string]string{
		"object":        `{"idGroup":4,"nameGroup":"Coltrane"}`,
		"values list":   `{"$values":[{"idGroup":4,"nameGroup":"Coltrane"}]}`,
		"values object": `{"$values":{"idGroup":4,"nameGroup":"Coltrane"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, mt, _ := newClient(t)
			mt.On("GET", "groups/4").Body(200, body)
			got, err := c.GroupName(context.Background(), 4)
			require.NoError(t, err)
			assert.Equal(t, "Coltrane", got)
		})
	}

	c, mt, _ := newClient(t)
	mt.On("GET", "groups/5").Body(200, `{"$values":[]}`)
	got, err := c.GroupName(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddRecordSendsMultipart(t *testing.T) {
	c, mt, n := newClient(t)
	mt.On("POST", "records").Body(201, `{"$values":{"idRecord":9,"titleRecord":"Kind of Blue","stock":5}}`)

	group := 4
	saved, err := c.AddRecord(context.Background(), catalog.RecordInput{
		Record: models.Record{Title: "Kind of Blue", Price: 9.99, Stock: 5, GroupID: &group},
		Photo:  "covers/blue.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, 9, saved.ID)
	assert.Equal(t, [][2]int{{9, 5}}, n.updates)

	call := mt.Calls()[0]
	_, params, err := mime.ParseMediaType(call.Header.Get("Content-Type"))
	require.NoError(t, err)
	fields := map[string]string{}
	mr := multipart.NewReader(strings.NewReader(string(call.Body)), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, _ := io.ReadAll(p)
		fields[p.FormName()] = string(b)
	}
	assert.Equal(t, map[string]string{
		"titleRecord":       "Kind of Blue",
		"yearOfPublication": "",
		"price":             "9.99",
		"stock":             "5",
		"discontinued":      "false",
		"groupId":           "4",
		"photo":             "jpeg",
	}, fields)
}

func TestAddRecordValidatesBeforeCalling(t *testing.T) {
	c, mt, _ := newClient(t)
	_, err := c.AddRecord(context.Background(), catalog.RecordInput{Record: models.Record{Title: ""}})
	assert.ErrorIs(t, err, api.ErrValidation)

	_, err = c.AddRecord(context.Background(), catalog.RecordInput{Record: models.Record{Title: "x"}})
	assert.ErrorIs(t, err, api.ErrValidation)
	assert.Empty(t, mt.Calls())
}

func TestGenresCRUD(t *testing.T) {
	c, mt, _ := newClient(t)
	mt.On("GET", "musicGenres").Body(200, `[{"idMusicGenre":1,"nameMusicGenre":"Jazz","totalGroups":3}]`)
	mt.On("POST", "musicGenres").Body(201, `{"idMusicGenre":2,"nameMusicGenre":"Blues"}`)
	mt.On("PUT", "musicGenres/2").Status(204)
	mt.On("DELETE", "musicGenres/2").Status(401)

	ctx := context.Background()
	genres, err := c.ListGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Genre{{ID: 1, Name: "Jazz", TotalGroups: 3}}, genres)

	g, err := c.AddGenre(ctx, models.Genre{Name: "Blues"})
	require.NoError(t, err)
	assert.Equal(t, 2, g.ID)

	assert.NoError(t, c.UpdateGenre(ctx, models.Genre{ID: 2, Name: "Delta Blues"}))
	assert.ErrorIs(t, c.DeleteGenre(ctx, 2), api.ErrAuth)
}
