package main

import (
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/target/storefront-go/internal/domain/model"
)

func printCart(cc *commandContext, c model.Cart) error {
	if len(c.Items) == 0 {
		return writeln(cc.Out, "Your cart is empty.")
	}
	w := tabwriter.NewWriter(cc.Out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "ID\tName\tPrice\tQty\tSubtotal"); err != nil {
		return err
	}
	for _, it := range c.Items {
		if err := writef(w, "%d\t%s\t%s\t%d\t%s\n", it.ProductID, it.Name, it.Price, it.Quantity, it.Subtotal()); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return writef(cc.Out, "Total: %s (%d items)\n", c.Total(), c.Count())
}

func runCart(cc *commandContext, _ []string) error {
	c, err := cc.App.Cart.Items(cc.Ctx)
	if err != nil {
		return err
	}
	return printCart(cc, c)
}

func runCartAdd(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "cart-add")
	qty := fs.Int("qty", 1, "quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErrorf("cart-add [-qty N] <slug>")
	}
	p, err := cc.App.Catalog.GetProduct(cc.Ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	c, err := cc.App.Cart.Add(cc.Ctx, p, *qty)
	if err != nil {
		return err
	}
	if err := writef(cc.Out, "Added %d x %s\n", *qty, p.Name); err != nil {
		return err
	}
	return printCart(cc, c)
}

func runCartRemove(cc *commandContext, args []string) error {
	if len(args) != 1 {
		return usageErrorf("cart-remove <product-id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usageErrorf("product id %q is not a number", args[0])
	}
	c, err := cc.App.Cart.Remove(cc.Ctx, id)
	if err != nil {
		return err
	}
	return printCart(cc, c)
}

func runCartClear(cc *commandContext, _ []string) error {
	c, err := cc.App.Cart.Clear(cc.Ctx)
	if err != nil {
		return err
	}
	if err := writeln(cc.Out, "Cart cleared"); err != nil {
		return err
	}
	return printCart(cc, c)
}

func runCartMerge(cc *commandContext, _ []string) error {
	if ok, err := requireLogin(cc); !ok {
		return err
	}
	guest, err := cc.App.Cart.LoadLocal(cc.Ctx)
	if err != nil {
		return err
	}
	if len(guest.Items) == 0 {
		return writeln(cc.Out, "Guest cart is empty; nothing to merge.")
	}
	c, mergeErr := cc.App.Cart.MergeGuest(cc.Ctx)
	if mergeErr != nil {
		// Unmerged lines stay in the guest cart.
		cc.Logger.WarnContext(cc.Ctx, "guest cart merge incomplete", "error", mergeErr)
		if err := writef(cc.Out, "Some guest cart items could not be added: %v\n", mergeErr); err != nil {
			return err
		}
	} else if err := writef(cc.Out, "Merged guest cart (%d items)\n", guest.Count()); err != nil {
		return err
	}
	return printCart(cc, c)
}

func runOrder(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "order")
	address := fs.String("address", "", "shipping address")
	phone := fs.String("phone", "", "contact phone")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ok, err := requireLogin(cc); !ok {
		return err
	}
	o, err := cc.App.Orders.PlaceFromCart(cc.Ctx, *address, *phone)
	if err != nil {
		return err
	}
	return writef(cc.Out, "Placed order %d (%s), total %s\n", o.ID, o.Status, o.Total)
}

func runOrders(cc *commandContext, args []string) error {
	var id int64
	if len(args) == 1 {
		var err error
		if id, err = strconv.ParseInt(args[0], 10, 64); err != nil {
			return usageErrorf("order id %q is not a number", args[0])
		}
	}
	if ok, err := requireLogin(cc); !ok {
		return err
	}
	if id != 0 {
		o, err := cc.App.Orders.Get(cc.Ctx, id)
		if err != nil {
			return err
		}
		return printOrder(cc, o)
	}

	orders, err := cc.App.Orders.List(cc.Ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return writeln(cc.Out, "No orders yet.")
	}
	w := tabwriter.NewWriter(cc.Out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "ID\tStatus\tItems\tTotal\tPlaced"); err != nil {
		return err
	}
	for _, o := range orders {
		placed := ""
		if !o.CreatedAt.IsZero() {
			placed = o.CreatedAt.Local().Format(time.DateTime)
		}
		if err := writef(w, "%d\t%s\t%d\t%s\t%s\n", o.ID, o.Status, len(o.Items), o.Total, placed); err != nil {
			return err
		}
	}
	return w.Flush()
}

func printOrder(cc *commandContext, o model.Order) error {
	if err := writef(cc.Out, "Order %d (%s)\n", o.ID, o.Status); err != nil {
		return err
	}
	for _, it := range o.Items {
		if err := writef(cc.Out, "  %d x %s @ %s\n", it.Quantity, it.Name, it.Price); err != nil {
			return err
		}
	}
	if o.ShippingAddress != "" {
		if err := writef(cc.Out, "Ship to: %s\n", o.ShippingAddress); err != nil {
			return err
		}
	}
	return writef(cc.Out, "Total: %s\n", o.Total)
}

