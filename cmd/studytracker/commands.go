package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aristath/studytracker/internal/catalog"
)

const usage = `usage:
  studytracker                          open the dashboard
  studytracker subject <code> <name> [description]
  studytracker subjects                 list subjects and their tasks
  studytracker marks <code> <index> <0-100>
  studytracker reset                    delete every subject and task
  studytracker reseed                   replace coursework with the demo data
  studytracker resume <title> <file.md> import a Markdown resume
  studytracker resume <id>              print a resume as HTML
  studytracker resumes                  list resumes
  studytracker internship <company> <position> <start> <end> [status]
  studytracker internships              list internships`

var errUsage = errors.New(usage)

// runCommand handles the non-interactive subcommands. Coursework changes
// reach the database through the recorder once the caller drains it.
func runCommand(ctx context.Context, a *app, args []string, out io.Writer) error {
	switch args[0] {
	case "subject":
		if len(args) != 3 && len(args) != 4 {
			return errUsage
		}
		var desc string
		if len(args) == 4 {
			desc = args[3]
		}
		if err := a.engine.CreateSubject(ctx, args[2], args[1], desc); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\n", strings.TrimSpace(args[1]), strings.TrimSpace(args[2]))

	case "subjects":
		for _, sub := range a.engine.Subjects() {
			fmt.Fprintf(out, "%s\t%s\t%d tasks\n", sub.Code, sub.Name, len(sub.Tasks))
			for i, task := range sub.Tasks {
				line := fmt.Sprintf("  [%d]\t%s\t%s\t%s", i, task.Title, task.Type, task.State)
				if task.Completed() {
					line += fmt.Sprintf("\t%d/100", task.Marks)
				}
				fmt.Fprintln(out, line)
			}
		}

	case "marks":
		if len(args) != 4 {
			return errUsage
		}
		index, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("task index: %w", err)
		}
		marks, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("marks: %w", err)
		}
		if err := a.engine.SetTaskMarks(ctx, args[1], index, marks); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s[%d]\t%d/100\n", args[1], index, marks)

	case "reset":
		if len(args) != 1 {
			return errUsage
		}
		if err := a.engine.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "coursework cleared")

	case "reseed":
		if len(args) != 1 {
			return errUsage
		}
		if err := a.engine.Seed(ctx, a.now); err != nil {
			return err
		}
		fmt.Fprintf(out, "seeded %d subjects\n", len(a.engine.Subjects()))

	case "resume":
		switch len(args) {
		case 2:
			r, err := a.catalog.Resume(args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(out, r.HTML)
		case 3:
			body, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("reading resume: %w", err)
			}
			r, err := a.catalog.CreateResume(ctx, args[1], string(body))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%s\n", r.ID, r.Title)
		default:
			return errUsage
		}

	case "resumes":
		for _, r := range a.catalog.Resumes() {
			fmt.Fprintf(out, "%s\t%s\t%s\n", r.ID, r.Title, r.CreatedAt.Format("2006-01-02"))
		}

	case "internship":
		if len(args) != 5 && len(args) != 6 {
			return errUsage
		}
		in := catalog.Internship{Company: args[1], Position: args[2], StartDate: args[3], EndDate: args[4]}
		if len(args) == 6 {
			status, err := strconv.Atoi(args[5])
			if err != nil {
				return fmt.Errorf("status must be 0-3: %w", err)
			}
			in.Status = catalog.StatusFromInt(status)
		}
		created, err := a.catalog.CreateInternship(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", created.ID, created.Company, created.Status)

	case "internships":
		for _, in := range a.catalog.Internships() {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s..%s\n", in.ID, in.Company, in.Position, in.Status, in.StartDate, in.EndDate)
		}

	default:
		return errUsage
	}
	return nil
}
