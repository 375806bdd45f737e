package main

import (
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/target/storefront-go/internal/domain/model"
)

func runProducts(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "products")
	var filter model.ProductFilter
	fs.StringVar(&filter.Search, "search", "", "name search")
	fs.StringVar(&filter.Category, "category", "", "category name")
	fs.StringVar(&filter.Ordering, "ordering", "", "sort field, prefix with - for descending")
	fs.IntVar(&filter.Page, "page", 1, "page number")
	minPrice := fs.String("min", "", "minimum price")
	maxPrice := fs.String("max", "", "maximum price")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	if filter.MinPrice, err = model.ParsePrice(*minPrice); err != nil {
		return usageErrorf("-min: %v", err)
	}
	if filter.MaxPrice, err = model.ParsePrice(*maxPrice); err != nil {
		return usageErrorf("-max: %v", err)
	}

	page, err := cc.App.Catalog.ListProducts(cc.Ctx, filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cc.Out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "ID\tSlug\tName\tPrice\tStock\tCategory"); err != nil {
		return err
	}
	for _, p := range page.Results {
		if err := writef(w, "%d\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Slug, p.Name, p.Price, p.Stock, p.Category); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	more := ""
	if page.Next != "" {
		more = ", more with -page " + strconv.Itoa(max(filter.Page, 1)+1)
	}
	return writef(cc.Out, "%d of %d products%s\n", len(page.Results), page.Count, more)
}

func runProduct(cc *commandContext, args []string) error {
	if len(args) != 1 {
		return usageErrorf("product <slug>")
	}
	pp, err := cc.App.Catalog.ProductPage(cc.Ctx, args[0])
	if err != nil {
		return err
	}
	p := pp.Product
	if err := writef(cc.Out, "%s (#%d)\nPrice:    %s\nStock:    %d\nCategory: %s\n",
		p.Name, p.ID, p.Price, p.Stock, p.Category); err != nil {
		return err
	}
	if p.Description != "" {
		if err := writef(cc.Out, "\n%s\n", p.Description); err != nil {
			return err
		}
	}
	if err := writef(cc.Out, "\nReviews (%d)\n", len(pp.Reviews)); err != nil {
		return err
	}
	for _, r := range pp.Reviews {
		if err := writef(cc.Out, "  [%d] %s %s: %s\n", r.ID, strings.Repeat("*", r.Rating), r.User, r.Comment); err != nil {
			return err
		}
	}
	return nil
}

func runProductNew(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "product-new")
	var in model.ProductInput
	fs.StringVar(&in.Name, "name", "", "product name")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.IntVar(&in.Stock, "stock", 0, "units in stock")
	fs.Int64Var(&in.Category, "category", 0, "category id")
	price := fs.String("price", "", "price, e.g. 12.50")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var err error
	if in.Price, err = model.ParsePrice(*price); err != nil {
		return usageErrorf("-price: %v", err)
	}

	p, err := cc.App.Catalog.CreateProduct(cc.Ctx, in)
	if err != nil {
		return err
	}
	return writef(cc.Out, "Created %s (#%d, %s)\n", p.Name, p.ID, p.Slug)
}

func runCategories(cc *commandContext, _ []string) error {
	cats, err := cc.App.Catalog.ListCategories(cc.Ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cc.Out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "ID\tName"); err != nil {
		return err
	}
	for _, c := range cats {
		if err := writef(w, "%d\t%s\n", c.ID, c.Name); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runReview(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "review")
	var in model.ReviewInput
	fs.IntVar(&in.Rating, "rating", 0, "rating from 1 to 5")
	fs.StringVar(&in.Comment, "comment", "", "review text")
	id := fs.Int64("id", 0, "existing review id to edit or delete")
	del := fs.Bool("delete", false, "delete the review given by -id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErrorf("review [flags] <slug>")
	}
	slug := fs.Arg(0)
	if ok, err := requireLogin(cc); !ok {
		return err
	}

	reviews := cc.App.Reviews
	switch {
	case *del:
		if *id == 0 {
			return usageErrorf("-delete needs -id")
		}
		if err := reviews.Delete(cc.Ctx, slug, *id); err != nil {
			return err
		}
		return writef(cc.Out, "Deleted review %d\n", *id)
	case *id != 0:
		r, err := reviews.Update(cc.Ctx, slug, *id, in)
		if err != nil {
			return err
		}
		return writef(cc.Out, "Updated review %d\n", r.ID)
	default:
		r, err := reviews.Create(cc.Ctx, slug, in)
		if err != nil {
			return err
		}
		return writef(cc.Out, "Posted review %d\n", r.ID)
	}
}
