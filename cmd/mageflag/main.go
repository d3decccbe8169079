// Command mageflag edits Mage Arena's custom battle flag: it moves flag
// images between BMP files, the game's own storage, a local snapshot vault,
// and a live browser preview.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/SamJakob/MageArenaFlagEditor/core/bitmap"
	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
	"github.com/SamJakob/MageArenaFlagEditor/core/flaggrid"
	"github.com/SamJakob/MageArenaFlagEditor/core/palette"
	"github.com/SamJakob/MageArenaFlagEditor/core/vault"
	"github.com/SamJakob/MageArenaFlagEditor/internal/config"
	"github.com/SamJakob/MageArenaFlagEditor/internal/flagstore"
	"github.com/SamJakob/MageArenaFlagEditor/internal/imaging"
	"github.com/SamJakob/MageArenaFlagEditor/internal/logging"
	"github.com/SamJakob/MageArenaFlagEditor/internal/preview"
)

const version = "1.0.0"

// CLI defines the command-line interface for mageflag.
var CLI struct {
	// Global flags
	Config    string `help:"Config file path" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`
	Store     string `help:"Flag store selector: registry or file:<path>"`

	Read    ReadCmd      `cmd:"" help:"Read the stored flag into a BMP file"`
	Write   WriteCmd     `cmd:"" help:"Write a BMP file into the game's flag store"`
	Palette PaletteGroup `cmd:"" help:"Palette inspection and generation"`
	Vault   VaultGroup   `cmd:"" help:"Flag snapshot vault"`
	Preview PreviewCmd   `cmd:"" help:"Serve a live browser preview of the stored flag"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// PaletteGroup contains palette operations.
type PaletteGroup struct {
	Show  PaletteShowCmd  `cmd:"" help:"Inspect a palette"`
	Build PaletteBuildCmd `cmd:"" help:"Build a palette BMP from an XML swatch catalog"`
}

// VaultGroup contains snapshot vault operations.
type VaultGroup struct {
	Save   VaultSaveCmd   `cmd:"" help:"Save a flag snapshot"`
	Load   VaultLoadCmd   `cmd:"" help:"Load a snapshot into a BMP file"`
	List   VaultListCmd   `cmd:"" help:"List saved snapshots"`
	Delete VaultDeleteCmd `cmd:"" help:"Delete a snapshot"`
	Info   VaultInfoCmd   `cmd:"" help:"Show snapshot details"`
}

// cfg is the merged configuration: CLI flags over config file over defaults.
var cfg config.Config

// openStore builds the flag store from the merged selector.
func openStore() (flagstore.Store, error) {
	return flagstore.New(cfg.Store)
}

// loadPalette resolves a palette selector: "builtin:<name>" names a built-in
// palette, anything else is a BMP file path. An empty selector falls back to
// the configured default.
func loadPalette(selector string) (*bitmap.Image[bitmap.RGB24], error) {
	if selector == "" {
		selector = cfg.Palette
	}
	if selector == "" {
		return nil, errors.NewIllegal("palette", "no palette given (use --palette or set one in the config file)")
	}
	if name, ok := strings.CutPrefix(selector, "builtin:"); ok {
		return palette.Builtin(name)
	}
	return readBitmapFile(selector)
}

func readBitmapFile(path string) (*bitmap.Image[bitmap.RGB24], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewAccess("read", path, err)
	}
	img, err := bitmap.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse bitmap data in %s", path)
	}
	logging.CodecEvent("decode", img.Width(), img.Height(), "path", path)
	return img, nil
}

func writeBitmapFile(path string, img *bitmap.Image[bitmap.RGB24]) error {
	if err := os.WriteFile(path, img.Encode(), 0644); err != nil {
		return errors.NewAccess("write", path, err)
	}
	logging.CodecEvent("encode", img.Width(), img.Height(), "path", path)
	return nil
}

// vaultPath resolves the snapshot vault location.
func vaultPath() (string, error) {
	if cfg.VaultPath != "" {
		return cfg.VaultPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.NewAccess("locate", "user config directory", err)
	}
	return filepath.Join(dir, "mageflag", "vault.db"), nil
}

func openVault() (*vault.Vault, error) {
	path, err := vaultPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewAccess("create", filepath.Dir(path), err)
	}
	return vault.Open(path)
}

// readStoredFlag pulls the current grid out of the store and renders it
// through the palette.
func readStoredFlag(store flagstore.Store, pal *bitmap.Image[bitmap.RGB24]) (*bitmap.Image[bitmap.RGB24], error) {
	data, err := store.ReadFlag()
	if err != nil {
		return nil, err
	}
	logging.StoreAccess("read", store.Location(), len(data))

	grid, err := flaggrid.ParseGrid(data)
	if err != nil {
		return nil, err
	}
	pixels, err := grid.Pixels(pal)
	if err != nil {
		return nil, err
	}
	return bitmap.New(flaggrid.FlagWidth, flaggrid.FlagHeight, pixels)
}

// ReadCmd reads the stored flag into a BMP file.
type ReadCmd struct {
	Palette string `help:"Palette BMP path or builtin:<name>"`
	Out     string `required:"" help:"Output BMP path" type:"path"`
}

func (c *ReadCmd) Run() error {
	pal, err := loadPalette(c.Palette)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	img, err := readStoredFlag(store, pal)
	if err != nil {
		return err
	}
	return writeBitmapFile(c.Out, img)
}

// WriteCmd writes a BMP file into the game's flag store.
type WriteCmd struct {
	Palette string `help:"Palette BMP path or builtin:<name>"`
	In      string `required:"" help:"Input BMP path" type:"existingfile"`
	Fit     bool   `help:"Resize the input to the flag dimensions"`
	Dither  bool   `help:"Apply Floyd-Steinberg dithering against the palette before mapping"`
}

func (c *WriteCmd) Run() error {
	pal, err := loadPalette(c.Palette)
	if err != nil {
		return err
	}
	flag, err := readBitmapFile(c.In)
	if err != nil {
		return err
	}

	if c.Fit {
		flag, err = imaging.Fit(flag, flaggrid.FlagWidth, flaggrid.FlagHeight)
		if err != nil {
			return err
		}
	}
	if c.Dither {
		flag, err = imaging.Dither(flag, pal)
		if err != nil {
			return err
		}
	}

	grid, err := flaggrid.FromImage(flag, pal)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	data := grid.Encode()
	if err := store.WriteFlag(data); err != nil {
		return err
	}
	logging.StoreAccess("write", store.Location(), len(data))
	return nil
}

// PaletteShowCmd prints a palette's dimensions and distinct colors.
type PaletteShowCmd struct {
	Palette string `arg:"" help:"Palette BMP path or builtin:<name>"`
}

func (c *PaletteShowCmd) Run() error {
	pal, err := loadPalette(c.Palette)
	if err != nil {
		return err
	}

	distinct := make(map[bitmap.RGB24]struct{})
	for _, p := range pal.Pixels {
		distinct[p] = struct{}{}
	}
	fmt.Printf("palette: %s\n", c.Palette)
	fmt.Printf("dimensions: %dx%d\n", pal.Width(), pal.Height())
	fmt.Printf("distinct colors: %d\n", len(distinct))
	return nil
}

// PaletteBuildCmd builds a palette BMP from an XML swatch catalog.
type PaletteBuildCmd struct {
	Catalog string `arg:"" help:"Catalog XML path" type:"existingfile"`
	Name    string `required:"" help:"Palette name within the catalog"`
	Width   int32  `default:"16" help:"Palette width in pixels"`
	Height  int32  `default:"8" help:"Palette height in pixels"`
	Out     string `required:"" help:"Output BMP path" type:"path"`
}

func (c *PaletteBuildCmd) Run() error {
	data, err := os.ReadFile(c.Catalog)
	if err != nil {
		return errors.NewAccess("read", c.Catalog, err)
	}
	catalog, err := palette.LoadCatalog(data)
	if err != nil {
		return err
	}
	img, err := catalog.Build(c.Name, c.Width, c.Height)
	if err != nil {
		return err
	}
	return writeBitmapFile(c.Out, img)
}

// VaultSaveCmd saves a flag snapshot, either from a BMP file or from the
// game's store.
type VaultSaveCmd struct {
	Name    string `arg:"" help:"Snapshot name"`
	In      string `help:"Input BMP path (default: the stored flag)" type:"path"`
	Palette string `help:"Palette for reading the stored flag"`
}

func (c *VaultSaveCmd) Run() error {
	var img *bitmap.Image[bitmap.RGB24]
	var err error

	if c.In != "" {
		img, err = readBitmapFile(c.In)
	} else {
		var pal *bitmap.Image[bitmap.RGB24]
		pal, err = loadPalette(c.Palette)
		if err != nil {
			return err
		}
		var store flagstore.Store
		store, err = openStore()
		if err != nil {
			return err
		}
		img, err = readStoredFlag(store, pal)
	}
	if err != nil {
		return err
	}

	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	snap, err := v.Save(c.Name, img)
	if err != nil {
		return err
	}
	logging.VaultEvent("saved", snap.Name, "id", snap.ID, "hash", snap.BlobHash)
	fmt.Printf("saved %q (%dx%d, %s)\n", snap.Name, snap.Width, snap.Height, snap.ID)
	return nil
}

// VaultLoadCmd loads a snapshot into a BMP file.
type VaultLoadCmd struct {
	Name string `arg:"" help:"Snapshot name"`
	Out  string `required:"" help:"Output BMP path" type:"path"`
}

func (c *VaultLoadCmd) Run() error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	img, err := v.Load(c.Name)
	if err != nil {
		return err
	}
	logging.VaultEvent("loaded", c.Name)
	return writeBitmapFile(c.Out, img)
}

// VaultListCmd lists saved snapshots.
type VaultListCmd struct{}

func (c *VaultListCmd) Run() error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	snaps, err := v.List()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("no snapshots")
		return nil
	}
	for _, s := range snaps {
		fmt.Printf("%-24s %4dx%-4d %8d bytes  %s\n",
			s.Name, s.Width, s.Height, s.RawSize, s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// VaultDeleteCmd deletes a snapshot.
type VaultDeleteCmd struct {
	Name string `arg:"" help:"Snapshot name"`
}

func (c *VaultDeleteCmd) Run() error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.Delete(c.Name); err != nil {
		return err
	}
	logging.VaultEvent("deleted", c.Name)
	fmt.Printf("deleted %q\n", c.Name)
	return nil
}

// VaultInfoCmd shows snapshot details.
type VaultInfoCmd struct {
	Name string `arg:"" help:"Snapshot name"`
}

func (c *VaultInfoCmd) Run() error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	s, err := v.Info(c.Name)
	if err != nil {
		return err
	}
	fmt.Printf("name:       %s\n", s.Name)
	fmt.Printf("id:         %s\n", s.ID)
	fmt.Printf("dimensions: %dx%d\n", s.Width, s.Height)
	fmt.Printf("blob hash:  %s\n", s.BlobHash)
	fmt.Printf("raw size:   %d bytes\n", s.RawSize)
	fmt.Printf("created:    %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// PreviewCmd serves a live browser preview of the stored flag.
type PreviewCmd struct {
	Addr    string `help:"Listen address (default 127.0.0.1:8633)"`
	Palette string `help:"Palette BMP path or builtin:<name>"`
}

func (c *PreviewCmd) Run() error {
	pal, err := loadPalette(c.Palette)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}

	addr := c.Addr
	if addr == "" {
		addr = cfg.PreviewAddr
	}
	server := preview.NewServer(store, pal, preview.WithAddr(addr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("mageflag %s (sqlite driver: %s)\n", version, vault.DriverType())
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mageflag"),
		kong.Description("Edit Mage Arena's custom battle flag."),
		kong.UsageOnError(),
	)

	fileCfg, err := config.Load(CLI.Config)
	ctx.FatalIfErrorf(err)
	cfg = config.Merge(fileCfg, config.Config{
		Store:     CLI.Store,
		LogLevel:  CLI.LogLevel,
		LogFormat: CLI.LogFormat,
	})

	level, err := logging.ParseLevel(cfg.LogLevel)
	ctx.FatalIfErrorf(err)
	format, err := logging.ParseFormat(cfg.LogFormat)
	ctx.FatalIfErrorf(err)
	logging.InitLogger(level, format)

	ctx.FatalIfErrorf(ctx.Run())
}
