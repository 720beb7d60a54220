// Command taskctl lists and edits tasks through the task API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"task-tracker/client"
	"task-tracker/config"
)

const usage = `usage: taskctl <command> [args]

commands:
  list                        show all tasks
  add <title> [description]   create a task
  done <id>                   mark a task completed
  undo <id>                   mark a task not completed
  rm <id>                     delete a task`

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	c := client.New(cfg.APIURL, nil)
	if err := run(context.Background(), c, os.Args[1:], os.Stdout); err != nil {
		config.Exitf("taskctl: %v", err)
	}
}

func run(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "list":
		tasks, err := c.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDONE\tTITLE\tDESCRIPTION")
		for _, t := range tasks {
			done := " "
			if t.Completed {
				done = "x"
			}
			desc := ""
			if t.Description != nil {
				desc = *t.Description
			}
			fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\n", t.ID, done, t.Title, desc)
		}
		return tw.Flush()

	case "add":
		if len(rest) < 1 || len(rest) > 2 {
			return errors.New("usage: taskctl add <title> [description]")
		}
		var desc *string
		if len(rest) == 2 {
			desc = &rest[1]
		}
		task, err := c.Create(ctx, rest[0], desc)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created task %d\n", task.ID)
		return nil

	case "done", "undo":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		task, err := c.SetCompleted(ctx, id, cmd == "done")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "task %d completed=%t\n", task.ID, task.Completed)
		return nil

	case "rm":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		if err := c.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted task %d\n", id)
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one task id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", args[0])
	}
	return id, nil
}
