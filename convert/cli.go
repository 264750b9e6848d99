package convert

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"docmd/common"
	"docmd/config"
	"docmd/gdocs"
	"docmd/htmlmd"
	"docmd/misc"
	"docmd/state"
	"docmd/store"
)

// RunPull is the "pull" command action. It exports a document, converts it
// to markdown and writes the result under the destination directory.
func RunPull(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("pull")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no document source has been specified")
	}
	docID, err := common.ExtractDocID(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	target := env.Cfg.Document.Pull.Target
	if to := cmd.String("to"); len(to) > 0 {
		if target, err = config.ParsePullTarget(to); err != nil {
			log.Warn("Unknown pull target requested, using configured one", zap.Error(err))
			target = env.Cfg.Document.Pull.Target
		}
	}

	env.Overwrite = cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("document", docID), zap.String("destination", dst), zap.Stringer("target", target))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return pull(ctx, docID, dst, target, log)
}

// RunPush is the "push" command action. It replaces the document body with
// markdown read from a file, a pulled bundle or stdin.
func RunPush(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("push")

	ref := cmd.Args().Get(0)
	if len(ref) == 0 {
		return errors.New("no document destination has been specified")
	}
	docID, err := common.ExtractDocID(ref)
	if err != nil {
		return err
	}

	src := cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	from := src
	if len(from) == 0 || from == "-" {
		from = "stdin"
	}

	log.Info("Processing starting", zap.String("document", docID), zap.String("source", from))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return push(ctx, docID, src, cmd.String("title"), log)
}

// RunInfo is the "info" command action, it prints document metadata as JSON.
func RunInfo(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("info")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no document source has been specified")
	}
	docID, err := common.ExtractDocID(src)
	if err != nil {
		return err
	}

	e, err := buildEngine(ctx, env, log)
	if err != nil {
		return err
	}
	meta, err := e.Info(ctx, docID)
	if err != nil {
		return fmt.Errorf("unable to read document metadata (%s): %w", docID, err)
	}
	return printJSON(meta)
}

// RunComments is the "comments" command action, it prints the document's
// comment threads as JSON.
func RunComments(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("comments")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no document source has been specified")
	}
	docID, err := common.ExtractDocID(src)
	if err != nil {
		return err
	}

	e, err := buildEngine(ctx, env, log)
	if err != nil {
		return err
	}
	threads, err := e.Comments(ctx, docID, cmd.Bool("resolved"), cmd.Bool("deleted"))
	if err != nil {
		return fmt.Errorf("unable to list comments (%s): %w", docID, err)
	}
	return printJSON(threads)
}

// RunHistory is the "history" command action, it prints documents recorded
// by earlier pulls and pushes as JSON, most recently touched first. An
// optional argument limits how many come back.
func RunHistory(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)

	if !env.Cfg.History.Enable {
		return errors.New("history is not enabled in configuration")
	}

	limit := 0
	if s := cmd.Args().Get(0); len(s) > 0 {
		if limit, err = strconv.Atoi(s); err != nil {
			env.Log.Named("history").Warn("Ignoring bad history limit", zap.String("limit", s), zap.Error(err))
			limit = 0
		}
	}

	h, err := store.Open(env.Cfg.History.Path)
	if err != nil {
		return err
	}
	defer h.Close()

	recs, err := h.List(limit)
	if err != nil {
		return err
	}
	return printJSON(recs)
}

// RunServe is the "serve" command action. It exposes the document tools as
// an MCP server over stdio. Logging is expected to be on stderr already so
// the protocol stream stays clean.
func RunServe(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("serve")

	e, err := buildEngine(ctx, env, log)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: misc.GetAppName(), Version: misc.GetVersion()}, nil)
	e.RegisterMCP(srv)

	log.Info("Serving starting", zap.String("transport", "stdio"))
	defer func(start time.Time) {
		log.Info("Serving completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return srv.Run(ctx, &mcp.StdioTransport{})
}

// RunAuth is the "auth" command action. It drives the interactive
// authorization flow and caches the token for every other command.
func RunAuth(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("auth")

	credPath := env.Cfg.Auth.CredentialsPath
	if len(credPath) == 0 {
		return errors.New("auth.credentials_path is not configured")
	}

	_, err = gdocs.NewHTTPClient(ctx, credPath, env.Cfg.Auth.TokenPath, func(authURL string) (string, error) {
		fmt.Printf("Open the link in your browser and authorize the application:\n\n\t%s\n\nAuthorization code: ", authURL)
		code, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("unable to read authorization code: %w", err)
		}
		return strings.TrimSpace(code), nil
	})
	if err != nil {
		return err
	}

	log.Info("Authorization token cached", zap.String("path", env.Cfg.Auth.TokenPath))
	return nil
}

func pull(ctx context.Context, docID, dst string, target config.PullTarget, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	e, err := buildEngine(ctx, env, log)
	if err != nil {
		return err
	}

	res, err := e.Pull(ctx, docID)
	if err != nil {
		return fmt.Errorf("unable to pull document (%s): %w", docID, err)
	}
	shrinkImages(res.Images, env.Cfg.Document.Pull.Images.MaxDimension, log)

	// Determine output file name and path based on metadata and configuration.
	outputName := buildOutputPath(res.Meta, dst, target, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	switch target {
	case config.PullTargetBundle:
		if err := WriteBundle(outputName, res, env.Cfg.Document.FixZip); err != nil {
			return err
		}
	default:
		if err := os.WriteFile(outputName, []byte(res.Markdown), 0644); err != nil {
			return fmt.Errorf("unable to write markdown output: %w", err)
		}
		if err := writeImages(filepath.Dir(outputName), res.Images, env, log); err != nil {
			return err
		}
	}

	// Store pull result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", docID, filepath.Ext(outputName)), outputName)
	}

	recordVisit(env, log, res.Meta, res.Slug, res.Markdown, false)

	log.Info("Document pulled", zap.String("to", outputName), zap.Int("images", len(res.Images)))
	return nil
}

func push(ctx context.Context, docID, src, title string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	md, bundleTitle, err := readPushSource(src)
	if err != nil {
		return err
	}
	if len(title) == 0 {
		title = bundleTitle
	}

	e, err := buildEngine(ctx, env, log)
	if err != nil {
		return err
	}

	res, err := e.Push(ctx, docID, title, md)
	if err != nil {
		return fmt.Errorf("unable to push document (%s): %w", docID, err)
	}

	abandoned := 0
	for _, st := range res.Tables {
		if st == TableAbandoned {
			abandoned++
		}
	}
	if abandoned > 0 {
		log.Warn("Some tables were left unpopulated", zap.Int("tables", abandoned))
	}

	recordVisit(env, log, res.Meta, common.Slug(res.Meta.Name), md, true)

	log.Info("Document pushed",
		zap.String("name", res.Meta.Name),
		zap.Int("tables", len(res.Tables)),
		zap.Bool("renamed", res.Renamed))
	return nil
}

// readPushSource reads the markdown body to push. An empty source or "-"
// reads stdin, a bundle archive contributes its stored title as well.
func readPushSource(src string) (md, title string, err error) {
	if len(src) == 0 || src == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("unable to read stdin: %w", err)
		}
		return string(data), "", nil
	}
	if strings.EqualFold(filepath.Ext(src), ".zip") {
		b, err := ReadBundle(src)
		if err != nil {
			return "", "", err
		}
		return b.Markdown, b.Meta.Title, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", "", fmt.Errorf("unable to read markdown source: %w", err)
	}
	return string(data), "", nil
}

// writeImages stores extracted images next to the markdown body, that is
// where the references inside it point.
func writeImages(dir string, images []htmlmd.Image, env *state.LocalEnv, log *zap.Logger) error {
	if !env.Cfg.Document.Pull.Images.Extract || len(images) == 0 {
		return nil
	}
	for _, im := range images {
		data, err := im.Payload()
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, im.Name), data, 0644); err != nil {
			return fmt.Errorf("unable to write image %s: %w", im.Name, err)
		}
	}
	log.Debug("Images written", zap.String("dir", dir), zap.Int("count", len(images)))
	return nil
}

// shrinkImages downscales pulled images to the configured limit in place. A
// payload that cannot be processed is kept as is, pull output should not
// fail over a single bad image.
func shrinkImages(images []htmlmd.Image, maxDim int, log *zap.Logger) {
	if maxDim <= 0 {
		return
	}
	for i, im := range images {
		data, err := im.Payload()
		if err != nil {
			log.Warn("Unable to decode image, keeping original", zap.String("name", im.Name), zap.Error(err))
			continue
		}
		fitted, err := htmlmd.FitUnder(data, maxDim)
		if err != nil {
			log.Warn("Unable to resize image, keeping original", zap.String("name", im.Name), zap.Error(err))
			continue
		}
		images[i].Data = base64.StdEncoding.EncodeToString(fitted)
		images[i].Format = htmlmd.DetectFormat(fitted, im.Format)
	}
}

// buildService wires an authenticated document service from cached
// credentials. It never starts an interactive authorization, that is what
// the auth command is for.
func buildService(ctx context.Context, env *state.LocalEnv, log *zap.Logger) (*gdocs.Service, error) {
	credPath := env.Cfg.Auth.CredentialsPath
	if len(credPath) == 0 {
		return nil, errors.New("auth.credentials_path is not configured")
	}
	client, err := gdocs.NewHTTPClient(ctx, credPath, env.Cfg.Auth.TokenPath, nil)
	if err != nil {
		return nil, err
	}
	return gdocs.NewService(ctx, client, log)
}

func buildEngine(ctx context.Context, env *state.LocalEnv, log *zap.Logger) (*Engine, error) {
	svc, err := buildService(ctx, env, log)
	if err != nil {
		return nil, err
	}
	return NewEngine(svc, svc, log), nil
}

// recordVisit stores the document in local history when enabled. History is
// best effort, a failure never fails the command that triggered it.
func recordVisit(env *state.LocalEnv, log *zap.Logger, meta *gdocs.DocMeta, slug, md string, pushed bool) {
	if !env.Cfg.History.Enable {
		return
	}

	h, err := store.Open(env.Cfg.History.Path)
	if err != nil {
		log.Warn("Unable to open history", zap.String("path", env.Cfg.History.Path), zap.Error(err))
		return
	}
	defer h.Close()

	v := store.Visit{
		ID:      meta.ID,
		Name:    meta.Name,
		Slug:    slug,
		URL:     meta.WebViewLink,
		Session: env.SessionID,
	}
	if x, err := NewExcerpter(); err != nil {
		log.Warn("Unable to prepare excerpter", zap.Error(err))
	} else {
		v.Excerpt = x.Excerpt(md, env.Cfg.Document.Pull.Excerpt.Sentences)
	}

	if pushed {
		err = h.RecordPush(v)
	} else {
		err = h.RecordPull(v)
	}
	if err != nil {
		log.Warn("Unable to record history entry", zap.String("id", meta.ID), zap.Error(err))
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
