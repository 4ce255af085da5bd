package anki

import (
	"archive/zip"
	"crypto/sha1"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// fieldSeparator joins note fields in the notes.flds column
const fieldSeparator = "\x1f"

// APKGGenerator creates Anki package files (.apkg) holding one text-only
// deck of looked-up words
type APKGGenerator struct {
	deckName string
	deckID   int64
	modelID  int64
	cards    []Card
	seen     map[string]bool
	now      func() time.Time
}

// NewAPKGGenerator creates a new APKG generator
func NewAPKGGenerator(deckName string) *APKGGenerator {
	now := time.Now().UnixMilli()
	return &APKGGenerator{
		deckName: deckName,
		deckID:   now,
		modelID:  now + 1,
		seen:     make(map[string]bool),
		now:      time.Now,
	}
}

// AddCard adds a card; a word already added for the same language is ignored
func (g *APKGGenerator) AddCard(card Card) {
	word := strings.TrimSpace(card.Word)
	if word == "" {
		return
	}
	key := noteGUID(card)
	if g.seen[key] {
		return
	}
	g.seen[key] = true
	card.Word = word
	g.cards = append(g.cards, card)
}

// Cards returns the cards that will be written
func (g *APKGGenerator) Cards() []Card {
	return g.cards
}

// GenerateAPKG writes the package to outputPath
func (g *APKGGenerator) GenerateAPKG(outputPath string) error {
	tempDir, err := os.MkdirTemp("", "cliprecall_apkg_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "collection.anki2")
	if err := g.createDatabase(dbPath); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	// No media travels with text cards, but Anki expects the mapping
	if err := os.WriteFile(filepath.Join(tempDir, "media"), []byte("{}"), 0644); err != nil {
		return fmt.Errorf("failed to create media mapping: %w", err)
	}

	if err := createZipPackage(outputPath, tempDir, "collection.anki2", "media"); err != nil {
		return fmt.Errorf("failed to create zip package: %w", err)
	}
	return nil
}

func (g *APKGGenerator) createDatabase(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, query := range schema {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	if err := g.insertCollection(tx); err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	if err := g.insertNotesAndCards(tx); err != nil {
		return fmt.Errorf("failed to insert notes and cards: %w", err)
	}
	return tx.Commit()
}

var schema = []string{
	`CREATE TABLE col (
		id integer PRIMARY KEY, crt integer NOT NULL, mod integer NOT NULL,
		scm integer NOT NULL, ver integer NOT NULL, dty integer NOT NULL,
		usn integer NOT NULL, ls integer NOT NULL, conf text NOT NULL,
		models text NOT NULL, decks text NOT NULL, dconf text NOT NULL,
		tags text NOT NULL
	)`,
	`CREATE TABLE notes (
		id integer PRIMARY KEY, guid text NOT NULL, mid integer NOT NULL,
		mod integer NOT NULL, usn integer NOT NULL, tags text NOT NULL,
		flds text NOT NULL, sfld text NOT NULL, csum integer NOT NULL,
		flags integer NOT NULL, data text NOT NULL
	)`,
	`CREATE TABLE cards (
		id integer PRIMARY KEY, nid integer NOT NULL, did integer NOT NULL,
		ord integer NOT NULL, mod integer NOT NULL, usn integer NOT NULL,
		type integer NOT NULL, queue integer NOT NULL, due integer NOT NULL,
		ivl integer NOT NULL, factor integer NOT NULL, reps integer NOT NULL,
		lapses integer NOT NULL, left integer NOT NULL, odue integer NOT NULL,
		odid integer NOT NULL, flags integer NOT NULL, data text NOT NULL
	)`,
	`CREATE TABLE revlog (
		id integer PRIMARY KEY, cid integer NOT NULL, usn integer NOT NULL,
		ease integer NOT NULL, ivl integer NOT NULL, lastIvl integer NOT NULL,
		factor integer NOT NULL, time integer NOT NULL, type integer NOT NULL
	)`,
	`CREATE TABLE graves (usn integer NOT NULL, oid integer NOT NULL, type integer NOT NULL)`,
	`CREATE INDEX ix_notes_csum ON notes (csum)`,
	`CREATE INDEX ix_notes_usn ON notes (usn)`,
	`CREATE INDEX ix_cards_usn ON cards (usn)`,
	`CREATE INDEX ix_cards_nid ON cards (nid)`,
	`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
	`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
	`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
}

func (g *APKGGenerator) insertCollection(tx *sql.Tx) error {
	now := g.now().Unix()

	deck := func(id int64, name, desc string) map[string]any {
		return map[string]any{
			"id": id, "name": name, "desc": desc, "mod": now,
			"collapsed": false, "browserCollapsed": false,
			"dyn": 0, "conf": 1, "usn": 0,
			"newToday": []int{0, 0}, "revToday": []int{0, 0},
			"lrnToday": []int{0, 0}, "timeToday": []int{0, 0},
			"extendNew": 10, "extendRev": 50,
		}
	}
	decks := map[string]any{
		"1":                             deck(1, "Default", ""),
		strconv.FormatInt(g.deckID, 10): deck(g.deckID, g.deckName, "Vocabulary looked up in ClipRecall"),
	}
	models := map[string]any{
		strconv.FormatInt(g.modelID, 10): g.noteType(now),
	}
	conf := map[string]any{
		"nextPos": 1, "estTimes": true, "activeDecks": []int64{1},
		"sortType": "noteFld", "sortBackwards": false, "addToCur": true,
		"curDeck": 1, "newSpread": 0, "dueCounts": true,
		"collapseTime": 1200, "timeLim": 0, "schedVer": 1,
		"curModel": strconv.FormatInt(g.modelID, 10), "dayLearnFirst": false,
	}
	dconf := map[string]any{
		"1": map[string]any{
			"id": 1, "name": "Default", "dyn": 0,
			"new": map[string]any{
				"delays": []int{1, 10}, "ints": []int{1, 4, 7},
				"initialFactor": 2500, "perDay": 20, "order": 1,
				"bury": true, "separate": true,
			},
			"lapse": map[string]any{
				"delays": []int{10}, "mult": 0, "minInt": 1,
				"leechFails": 8, "leechAction": 0,
			},
			"rev": map[string]any{
				"perDay": 100, "ease4": 1.3, "fuzz": 0.05, "maxIvl": 36500,
				"ivlFct": 1, "bury": true, "minSpace": 1,
			},
			"timer": 0, "maxTaken": 60, "usn": 0, "mod": now,
			"autoplay": false, "replayq": true,
		},
	}

	var encoded [4]string
	for i, v := range []any{conf, models, decks, dconf} {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		encoded[i] = string(data)
	}

	_, err := tx.Exec(`INSERT INTO col VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		1, now, now*1000, now*1000,
		11, // schema version
		0, 0, 0,
		encoded[0], encoded[1], encoded[2], encoded[3],
		"{}",
	)
	return err
}

// noteType describes the Word/Translation/Language/Segment note with a
// recognition and a recall card
func (g *APKGGenerator) noteType(now int64) map[string]any {
	field := func(ord int, name string, size int) map[string]any {
		return map[string]any{
			"name": name, "ord": ord, "sticky": false, "rtl": false,
			"font": "Arial", "size": size, "media": []string{},
		}
	}
	template := func(ord int, name, front, back string) map[string]any {
		return map[string]any{
			"name": name, "ord": ord, "qfmt": front, "afmt": back,
			"did": nil, "bqfmt": "", "bafmt": "",
		}
	}

	return map[string]any{
		"id":    g.modelID,
		"name":  "ClipRecall Vocabulary (Basic + Reverse)",
		"type":  0,
		"mod":   now,
		"usn":   -1,
		"sortf": 0,
		"did":   g.deckID,
		"req":   [][]any{{0, "all", []int{0}}, {1, "all", []int{1}}},
		"vers":  []int{},
		"tags":  []string{},
		"latexPre": `\documentclass[12pt]{article}
\special{papersize=3in,5in}
\usepackage[utf8]{inputenc}
\usepackage{amssymb,amsmath}
\pagestyle{empty}
\setlength{\parindent}{0in}
\begin{document}`,
		"latexPost": `\end{document}`,
		"flds": []map[string]any{
			field(0, "Word", 28),
			field(1, "Translation", 24),
			field(2, "Language", 14),
			field(3, "Segment", 14),
		},
		"tmpls": []map[string]any{
			template(0, "Recognition", recognitionFront, recognitionBack),
			template(1, "Recall", recallFront, recallBack),
		},
		"css": cardCSS,
	}
}

const (
	recognitionFront = `<div class="word">{{Word}}</div>
<div class="language">{{Language}}</div>`

	recognitionBack = `{{FrontSide}}

<hr id="answer">

<div class="translation">{{Translation}}</div>
{{#Segment}}<div class="segment">{{Segment}}</div>{{/Segment}}`

	recallFront = `<div class="translation">{{Translation}}</div>
<div class="language">{{Language}}</div>`

	recallBack = `{{FrontSide}}

<hr id="answer">

<div class="word">{{Word}}</div>
{{#Segment}}<div class="segment">{{Segment}}</div>{{/Segment}}`

	cardCSS = `.card {
  font-family: Arial, sans-serif;
  font-size: 20px;
  text-align: center;
  color: #333;
  background-color: white;
}

.word {
  font-size: 32px;
  font-weight: bold;
  color: #c0392b;
  margin: 20px 0;
}

.translation {
  font-size: 28px;
  font-weight: bold;
  color: #2c3e50;
  margin: 20px 0;
}

.language, .segment {
  font-size: 14px;
  color: #7f8c8d;
  font-style: italic;
}

hr#answer {
  margin: 30px 0;
  border: 0;
  border-top: 1px solid #ecf0f1;
}`
)

func (g *APKGGenerator) insertNotesAndCards(tx *sql.Tx) error {
	now := g.now()
	base := now.UnixMilli()

	noteStmt, err := tx.Prepare(`INSERT INTO notes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()

	cardStmt, err := tx.Prepare(`INSERT INTO cards VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	for i, card := range g.cards {
		// Leave room for two card ids per note
		noteID := base + int64(i*3)

		translation := card.Translation
		if translation == "" {
			translation = "Translation needed"
		}
		fields := strings.Join([]string{
			card.Word,
			translation,
			languageLabel(card.Language),
			card.Segment,
		}, fieldSeparator)

		_, err := noteStmt.Exec(
			noteID,
			noteGUID(card),
			g.modelID,
			now.Unix(),
			-1, // usn
			"cliprecall "+card.Language,
			fields,
			card.Word, // sort field
			checksum(card.Word),
			0, // flags
			"",
		)
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}

		for ord := 0; ord < 2; ord++ {
			_, err := cardStmt.Exec(
				noteID+1+int64(ord),
				noteID,
				g.deckID,
				ord,
				now.Unix(),
				-1,               // usn
				0,                // type: new
				0,                // queue: new
				int64(i*2+ord+1), // due: position among new cards
				0, 0, 0, 0, 0, 0, 0, 0,
				"",
			)
			if err != nil {
				return fmt.Errorf("failed to insert card %d of %q: %w", ord, card.Word, err)
			}
		}
	}
	return nil
}

// noteGUID is stable per word and language so re-imports update notes
func noteGUID(card Card) string {
	sum := sha1.Sum([]byte(strings.ToLower(card.Language) + fieldSeparator + strings.ToLower(strings.TrimSpace(card.Word))))
	return "cr_" + hex.EncodeToString(sum[:8])
}

// checksum is Anki's duplicate check: the first 8 hex digits of the
// sha1 of the sort field
func checksum(field string) int64 {
	sum := sha1.Sum([]byte(field))
	return int64(binary.BigEndian.Uint32(sum[:4]))
}

func createZipPackage(outputPath, dir string, names ...string) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	archive := zip.NewWriter(zipFile)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			zipFile.Close()
			return err
		}
		w, err := archive.Create(name)
		if err != nil {
			zipFile.Close()
			return err
		}
		if _, err := w.Write(data); err != nil {
			zipFile.Close()
			return err
		}
	}

	if err := archive.Close(); err != nil {
		zipFile.Close()
		return err
	}
	return zipFile.Close()
}
