package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alphabot-ai/postboard/internal/auth"
	"github.com/alphabot-ai/postboard/internal/client"
	"github.com/alphabot-ai/postboard/internal/query"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
)

const defaultURL = "http://localhost:3000"

// CLIConfig is the client state persisted between invocations.
type CLIConfig struct {
	BaseURL string `json:"base_url"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

var signupCommand = &cli.Command{
	Name:  "signup",
	Usage: "create an account and log in",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true},
		&cli.StringFlag{Name: "email", Required: true},
		&cli.StringFlag{Name: "password", Required: true, Usage: "3-30 letters or digits"},
	},
	Action: func(c *cli.Context) error {
		api, err := anonymousClient(c)
		if err != nil {
			return err
		}
		u, err := api.Signup(c.String("name"), c.String("email"), c.String("password"))
		if err != nil {
			return err
		}
		fmt.Printf("Signed up %s <%s> as %s (id %d)\n", u.Name, u.Email, u.Role, u.ID)
		return login(api, c.String("email"), c.String("password"))
	},
}

var loginCommand = &cli.Command{
	Name:  "login",
	Usage: "log in and store the token",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "email", Required: true},
		&cli.StringFlag{Name: "password", Required: true},
	},
	Action: func(c *cli.Context) error {
		api, err := anonymousClient(c)
		if err != nil {
			return err
		}
		return login(api, c.String("email"), c.String("password"))
	},
}

var whoamiCommand = &cli.Command{
	Name:  "whoami",
	Usage: "show the stored login",
	Action: func(c *cli.Context) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}
		fmt.Printf("Server: %s\n", baseURL(c, cfg))
		if cfg.Token == "" {
			fmt.Println("Not logged in")
			return nil
		}
		claims, err := auth.Inspect(cfg.Token)
		if err != nil {
			return fmt.Errorf("stored token is unreadable: %w", err)
		}
		fmt.Printf("Email:  %s\n", claims.Email)
		fmt.Printf("UID:    %s\n", claims.Subject)
		switch exp := auth.ExpiresAt(claims); {
		case exp.IsZero():
			fmt.Println("Token:  does not expire")
		case time.Now().After(exp):
			fmt.Printf("Token:  expired at %s, run login again\n", exp.Local().Format(time.RFC1123))
		default:
			fmt.Printf("Token:  valid until %s\n", exp.Local().Format(time.RFC1123))
		}
		return nil
	},
}

var postsCommand = &cli.Command{
	Name:    "posts",
	Aliases: []string{"list"},
	Usage:   "list posts, newest first",
	Flags: append(pageFlags(),
		&cli.StringFlag{Name: "author", Usage: "author uid"},
		&cli.StringFlag{Name: "tags", Usage: "comma separated, matches any"},
	),
	Action: func(c *cli.Context) error {
		api, err := authenticatedClient(c)
		if err != nil {
			return err
		}
		page, err := api.ListPosts(client.ListOptions{
			Page:   c.Int("page"),
			Limit:  c.Int("limit"),
			Author: c.String("author"),
			Tags:   query.SplitTags(c.String("tags")),
		})
		if err != nil {
			return err
		}
		printPage(page)
		return nil
	},
}

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "search titles and content",
	ArgsUsage: "<keyword>",
	Flags:     pageFlags(),
	Action: func(c *cli.Context) error {
		keyword := strings.Join(c.Args().Slice(), " ")
		if keyword == "" {
			return cli.Exit("a search keyword is required", 1)
		}
		api, err := authenticatedClient(c)
		if err != nil {
			return err
		}
		page, err := api.SearchPosts(keyword, c.Int("page"), c.Int("limit"))
		if err != nil {
			return err
		}
		printPage(page)
		return nil
	},
}

var showCommand = &cli.Command{
	Name:      "show",
	Usage:     "show a post with its comments",
	ArgsUsage: "<post-id>",
	Action: func(c *cli.Context) error {
		id, err := argID(c)
		if err != nil {
			return err
		}
		api, err := authenticatedClient(c)
		if err != nil {
			return err
		}
		p, err := api.GetPost(id)
		if err != nil {
			return err
		}
		printPost(p, true)
		return nil
	},
}

var postCommand = &cli.Command{
	Name:  "post",
	Usage: "publish a post",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "title", Required: true},
		&cli.StringFlag{Name: "content", Required: true},
		&cli.StringFlag{Name: "tags", Required: true, Usage: "comma separated"},
	},
	Action: func(c *cli.Context) error {
		api, err := authenticatedClient(c)
		if err != nil {
			return err
		}
		p, err := api.CreatePost(c.String("title"), c.String("content"), query.SplitTags(c.String("tags")))
		if err != nil {
			return err
		}
		fmt.Printf("Published post %d\n", p.ID)
		return nil
	},
}

var editCommand = &cli.Command{
	Name:      "edit",
	Usage:     "change the title, content or tags of a post",
	ArgsUsage: "<post-id>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "title"},
		&cli.StringFlag{Name: "content"},
		&cli.StringFlag{Name: "tags", Usage: "comma separated, replaces all tags"},
	},
	Action: func(c *cli.Context) error {
		id, err := argID(c)
		if err != nil {
			return err
		}
		var upd client.PostUpdate
		if c.IsSet("title") {
			title := c.String("title")
			upd.Title = &title
		}
		if c.IsSet("content") {
			content := c.String("content")
			upd.Content = &content
		}
		if c.IsSet("tags") {
			upd.Tags = query.SplitTags(c.String("tags"))
		}
		if upd.Title == nil && upd.Content == nil && upd.Tags == nil {
			return cli.Exit("nothing to change, pass --title, --content or --tags", 1)
		}
		api, err := authenticatedClient(c)
		if err != nil {
			return err
		}
		p, err := api.UpdatePost(id, upd)
		if err != nil {
			return err
		}
		printPost(p, false)
		return nil
	},
}

var commentCommand = &cli.Command{
	Name:      "comment",
	Usage:     "comment on a post",
	ArgsUsage: "<post-id>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "text", Required: true},
	},
	Action: func(c *cli.Context) error {
		id, err := argID(c)
		if err != nil {
			return err
		}
		api, err := authenticatedClient(c)
		if err != nil {
			return err
		}
		p, err := api.AddComment(id, c.String("text"))
		if err != nil {
			return err
		}
		fmt.Printf("Commented on post %d (%d comments)\n", p.ID, len(p.Comments))
		return nil
	},
}

var deleteCommand = &cli.Command{
	Name:      "delete",
	Aliases:   []string{"rm"},
	Usage:     "delete a post you wrote",
	ArgsUsage: "<post-id>",
	Action: func(c *cli.Context) error {
		id, err := argID(c)
		if err != nil {
			return err
		}
		api, err := authenticatedClient(c)
		if err != nil {
			return err
		}
		if err := api.DeletePost(id); err != nil {
			return err
		}
		fmt.Printf("Deleted post %d\n", id)
		return nil
	},
}

var usersCommand = &cli.Command{
	Name:  "users",
	Usage: "list users",
	Flags: pageFlags(),
	Action: func(c *cli.Context) error {
		api, err := authenticatedClient(c)
		if err != nil {
			return err
		}
		page, err := api.ListUsers(c.Int("page"), c.Int("limit"))
		if err != nil {
			return err
		}
		for _, u := range page.Data {
			fmt.Printf("%4d  %-20s %s\n", u.ID, u.Name, u.Email)
		}
		fmt.Printf("\npage %d of %d, %d users\n", page.CurrentPage, page.TotalPages, page.TotalUsers)
		return nil
	},
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Aliases: []string{"p"}},
		&cli.IntFlag{Name: "limit", Aliases: []string{"n"}},
	}
}

func argID(c *cli.Context) (int64, error) {
	raw := c.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, cli.Exit(fmt.Sprintf("invalid post id %q", raw), 1)
	}
	return id, nil
}

func login(api *client.Client, email, password string) error {
	if err := api.Login(email, password); err != nil {
		return err
	}
	cfg := CLIConfig{BaseURL: api.BaseURL, Email: email, Token: api.Token}
	if err := saveCLIConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", email)
	return nil
}

func printPage(page *client.PostPage) {
	for i := range page.Data {
		printPost(&page.Data[i], false)
		fmt.Println()
	}
	fmt.Printf("page %d of %d, %d posts\n", page.CurrentPage, page.TotalPages, page.TotalPosts)
}

func printPost(p *client.Post, withComments bool) {
	fmt.Printf("#%d %s\n", p.ID, p.Title)
	fmt.Printf("   by %s on %s [%s]\n", nameOrDeleted(p.Author), p.CreatedAt, strings.Join(p.Tags, ", "))
	if !withComments {
		return
	}
	fmt.Printf("\n%s\n", p.Content)
	if len(p.Comments) == 0 {
		return
	}
	fmt.Printf("\n%d comments:\n", len(p.Comments))
	for _, cm := range p.Comments {
		fmt.Printf("  %s (%s): %s\n", nameOrDeleted(cm.Author), cm.Date, cm.Text)
	}
}

func nameOrDeleted(name *string) string {
	if name == nil {
		return "[deleted]"
	}
	return *name
}

// ============================================================================
// CONFIG
// ============================================================================

func cliConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".postboard", "config.json")
}

func loadCLIConfig() (CLIConfig, error) {
	var cfg CLIConfig
	data, err := os.ReadFile(cliConfigPath())
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", cliConfigPath(), err)
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	path := cliConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// baseURL prefers --url, then the stored server, then localhost.
func baseURL(c *cli.Context, cfg CLIConfig) string {
	if u := c.String("url"); u != "" {
		return u
	}
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return defaultURL
}

func newClient(c *cli.Context, cfg CLIConfig) *client.Client {
	api := client.New(baseURL(c, cfg))
	api.Token = cfg.Token
	return api
}

// anonymousClient keeps the stored server but not the token.
func anonymousClient(c *cli.Context) (*client.Client, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	return newClient(c, CLIConfig{BaseURL: cfg.BaseURL}), nil
}

func authenticatedClient(c *cli.Context) (*client.Client, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, cli.Exit("not logged in, run: postboard login --email <email> --password <password>", 1)
	}
	return newClient(c, cfg), nil
}
