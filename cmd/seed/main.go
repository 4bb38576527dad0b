package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/alphabot-ai/postboard/internal/client"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var authors = []string{"Ada", "Grace", "Linus", "Barbara", "Ken"}

var posts = []struct {
	title   string
	content string
	tags    []string
}{
	{"Getting started with Go modules", "Modules replaced GOPATH a while ago. Here is how I lay out a new project.", []string{"go", "tooling"}},
	{"Why I still write SQL by hand", "ORMs hide the queries you most need to see when something gets slow.", []string{"databases", "opinion"}},
	{"Notes on JSON web tokens", "Short lived tokens, a strong secret and no secrets inside the payload.", []string{"security", "web"}},
	{"Pagination without surprises", "Skip and limit are fine for small tables. Past that, use keyset pagination.", []string{"databases", "web"}},
	{"A week with SQLite in production", "It handled far more traffic than I expected. WAL mode helps.", []string{"databases", "ops"}},
	{"Table driven tests", "One slice of cases, one loop, clear failure messages.", []string{"go", "testing"}},
	{"Structured logging in practice", "Log fields, not sentences. Your future self will grep for them.", []string{"ops", "go"}},
	{"Password hashing basics", "Use bcrypt or argon2, never a fast hash, and never roll your own.", []string{"security"}},
	{"Graceful shutdown for HTTP servers", "Catch the signal, stop accepting, drain in flight requests with a deadline.", []string{"go", "ops"}},
	{"Designing error responses", "A stable shape with a status and a human message goes a long way.", []string{"web", "api"}},
}

var comments = []string{
	"Great write-up, thanks for sharing.",
	"I ran into exactly this last month.",
	"Do you have numbers to back this up?",
	"Bookmarked for later.",
	"Not sure I agree, but it is a fair argument.",
	"Would love a follow-up on the edge cases.",
	"This matches what we do at work.",
	"Clear and to the point.",
}

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "fill a running postboard server with demo users, posts and comments",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:3000", Usage: "postboard server URL", EnvVars: []string{"POSTBOARD_URL"}},
			&cli.StringFlag{Name: "password", Value: "demo1234", Usage: "password for every demo account"},
			&cli.Int64Flag{Name: "rand-seed", Usage: "seed for picking authors and comments, 0 uses the clock"},
		},
		Action: seed,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func seed(c *cli.Context) error {
	baseURL := c.String("url")
	password := c.String("password")
	randSeed := c.Int64("rand-seed")
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(randSeed))
	log := logrus.WithField("url", baseURL)

	if err := client.New(baseURL).Health(); err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	log.Info("seeding")

	var clients []*client.Client
	for _, name := range authors {
		api := client.New(baseURL)
		email := strings.ToLower(name) + "@example.com"
		if _, err := api.Signup(name, email, password); err != nil {
			return fmt.Errorf("sign up %s: %w", name, err)
		}
		if err := api.Login(email, password); err != nil {
			return fmt.Errorf("log in %s: %w", name, err)
		}
		log.WithField("email", email).Info("signed up")
		clients = append(clients, api)
	}

	var postIDs []int64
	for _, p := range posts {
		idx := rng.Intn(len(clients))
		created, err := clients[idx].CreatePost(p.title, p.content, p.tags)
		if err != nil {
			log.WithError(err).Warnf("failed to publish %q", p.title)
			continue
		}
		postIDs = append(postIDs, created.ID)
		log.WithFields(logrus.Fields{"postID": created.ID, "author": authors[idx]}).Info("published")

		// Spread out createdAt so the default sort is visible.
		time.Sleep(20 * time.Millisecond)
	}

	var commented int
	for _, id := range postIDs {
		for i := rng.Intn(4); i > 0; i-- {
			idx := rng.Intn(len(clients))
			if _, err := clients[idx].AddComment(id, comments[rng.Intn(len(comments))]); err != nil {
				log.WithError(err).WithField("postID", id).Warn("failed to comment")
				continue
			}
			commented++
		}
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Users:    %d (password %s)\n", len(clients), password)
	fmt.Printf("Posts:    %d\n", len(postIDs))
	fmt.Printf("Comments: %d\n", commented)
	fmt.Println("\nServer:", baseURL)
	return nil
}
