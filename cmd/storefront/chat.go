package main

import (
	"bufio"
	"strconv"
	"strings"
	"time"

	"github.com/target/storefront-go/internal/adapters/chat"
	"github.com/target/storefront-go/internal/domain/model"
)

func runChat(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "chat")
	message := fs.String("message", "", "send one message instead of reading stdin")
	wait := fs.Duration("wait", 2*time.Second, "how long to wait for replies after sending")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErrorf("chat [flags] <product-id>")
	}
	productID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return usageErrorf("product id %q is not a number", fs.Arg(0))
	}
	if ok, loginErr := requireLogin(cc); !ok {
		return loginErr
	}

	conn, err := cc.App.Chat.Dial(cc.Ctx, productID)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			cc.Logger.DebugContext(cc.Ctx, "chat close", "error", closeErr)
		}
	}()

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for msg := range conn.Messages() {
			_ = writef(cc.Out, "[%s] %s: %s\n", msg.Datetime.Local().Format(time.TimeOnly), sender(msg), msg.Message)
		}
	}()

	if err := sendAll(cc, conn, *message); err != nil {
		return err
	}

	timer := time.NewTimer(*wait)
	defer timer.Stop()
	select {
	case <-printed:
		return conn.Err()
	case <-timer.C:
	case <-cc.Ctx.Done():
	}
	if err := conn.Close(); err != nil {
		return err
	}
	<-printed
	return nil
}

// sendAll sends message, or every non-empty stdin line when message is empty.
func sendAll(cc *commandContext, conn *chat.Conn, message string) error {
	if message != "" {
		return conn.Send(cc.Ctx, model.ChatMessage{Message: message})
	}
	scanner := bufio.NewScanner(cc.In)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := conn.Send(cc.Ctx, model.ChatMessage{Message: line}); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func sender(msg model.ChatMessage) string {
	if msg.Sender == "" {
		return "anonymous"
	}
	return msg.Sender
}
