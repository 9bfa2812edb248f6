package matjson

import (
	"context"
	"log/slog"

	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/geometry"
)

// Converter translates between geometry or material maps and documents.
//
// A Converter holds no state between calls and is safe for concurrent use.
type Converter struct {
	cfg    Config
	limits Limits
	policy ErrorPolicy
	log    *slog.Logger
	tel    telemetry
}

// New validates cfg and returns a Converter.
func New(cfg Config, opts ...Option) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{limits: defaultLimits(), policy: FailFast}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	tel, err := newTelemetry(o.tracer, o.meter)
	if err != nil {
		return nil, err
	}
	return &Converter{
		cfg:    cfg,
		limits: o.limits.withDefaults(),
		policy: o.policy,
		log:    o.logger,
		tel:    tel,
	}, nil
}

// Config returns the converter's configuration.
func (c *Converter) Config() Config {
	return c.cfg
}

// GeometryToTree collects the material attached to world and its confined
// volumes. Categories disabled in the configuration are skipped.
func (c *Converter) GeometryToTree(ctx context.Context, world geometry.Volume) (*Tree, error) {
	return c.treeFromGeometry(ctx, world)
}

// MapsToTree arranges maps by the fields of their identifiers.
func (c *Converter) MapsToTree(ctx context.Context, maps Maps) (*Tree, error) {
	return c.treeFromMaps(ctx, maps)
}

// TreeToDocument renders tree, writing values unless the configuration asks
// for a skeleton.
func (c *Converter) TreeToDocument(tree *Tree) Document {
	return c.cfg.encodeTree(tree, c.cfg.WriteData)
}

// GeometryToDocument exports the material of world.
func (c *Converter) GeometryToDocument(ctx context.Context, world geometry.Volume) (doc Document, err error) {
	ctx, span := c.tel.start(ctx, "GeometryToDocument")
	defer func() { end(span, err) }()

	tree, err := c.treeFromGeometry(ctx, world)
	if err != nil {
		return nil, err
	}
	return c.export(ctx, tree), nil
}

// MapsToDocument exports already resolved material maps.
func (c *Converter) MapsToDocument(ctx context.Context, maps Maps) (doc Document, err error) {
	ctx, span := c.tel.start(ctx, "MapsToDocument")
	defer func() { end(span, err) }()

	tree, err := c.treeFromMaps(ctx, maps)
	if err != nil {
		return nil, err
	}
	return c.export(ctx, tree), nil
}

func (c *Converter) export(ctx context.Context, tree *Tree) Document {
	surfaces, volumes := tree.Counts()
	c.log.InfoContext(ctx, "material exported",
		slog.Int("volumes", len(tree.Volumes)),
		slog.Int("surfaces", surfaces),
		slog.Int("volume_materials", volumes),
		slog.Bool("write_data", c.cfg.WriteData),
	)
	c.tel.countTree(ctx, directionExport, tree)
	return c.TreeToDocument(tree)
}

// DocumentToTree parses doc into a tree, keeping proto leaves.
//
// Under BestEffort a non-nil tree is returned together with an *EntryErrors
// when entries were skipped.
func (c *Converter) DocumentToTree(ctx context.Context, doc Document) (*Tree, error) {
	d := &decoder{
		ctx:    ctx,
		cfg:    c.cfg,
		limits: c.limits,
		policy: c.policy,
		log:    c.log,
		tree:   newTree(),
		seen:   make(map[geoid.ID]struct{}),
	}
	return d.decode(doc)
}

// DocumentToMaps imports doc into newly allocated native material objects.
// Proto leaves produce no entry.
//
// Under FailFast the first bad entry aborts the import. Under BestEffort the
// returned maps hold every good entry and err is an *EntryErrors listing the
// skipped ones.
func (c *Converter) DocumentToMaps(ctx context.Context, doc Document) (maps Maps, err error) {
	ctx, span := c.tel.start(ctx, "DocumentToMaps")
	defer func() { end(span, err) }()

	tree, entryErr := c.DocumentToTree(ctx, doc)
	if tree == nil {
		return Maps{}, entryErr
	}
	maps, err = treeToMaps(tree)
	if err != nil {
		return Maps{}, err
	}
	c.tel.countTree(ctx, directionImport, tree)
	c.log.InfoContext(ctx, "material imported",
		slog.Int("surfaces", len(maps.Surfaces)),
		slog.Int("volumes", len(maps.Volumes)),
	)
	return maps, entryErr
}

// Skeleton re-exports doc without values. Every leaf keeps its type tag and
// binning; leaves that were proto stay proto.
func (c *Converter) Skeleton(ctx context.Context, doc Document) (out Document, err error) {
	ctx, span := c.tel.start(ctx, "Skeleton")
	defer func() { end(span, err) }()

	tree, err := c.DocumentToTree(ctx, doc)
	if tree == nil {
		return nil, err
	}
	return c.cfg.encodeTree(tree, false), err
}
