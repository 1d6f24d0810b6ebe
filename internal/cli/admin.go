package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kennel/internal/admin"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

func (a *app) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office actions on the stored entities",
	}
	cmd.AddCommand(
		a.productToggleCmd("best <product-id>", "Flip a product's best-seller flag", (*admin.Service).ToggleBest),
		a.productToggleCmd("featured <product-id>", "Flip a product's featured flag", (*admin.Service).ToggleFeatured),
		a.adminStockCmd(),
		a.adminResetPasswordsCmd(),
		a.adminAnswerCmd(),
		a.adminFAQCmd(),
		a.adminNoticeCmd(),
		a.adminPostCmd(),
		a.adminCommentCmd(),
		a.adminOverviewCmd(),
	)
	return cmd
}

// adminService binds the back-office actions to the configured storage.
func (a *app) adminService(ctx context.Context) (*admin.Service, error) {
	svc, err := a.service(ctx)
	if err != nil {
		return nil, err
	}
	return admin.New(svc, admin.WithLogger(a.log)), nil
}

func (a *app) printProduct(cmd *cobra.Command, p types.Product) error {
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s best=%t featured=%t stock=%d\n",
		p.ID, p.Name, p.IsBest, p.IsFeatured, p.Stock)
	return nil
}

func (a *app) productToggleCmd(use, short string, toggle func(*admin.Service, context.Context, types.ID) (types.Product, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.adminService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := toggle(s, cmd.Context(), parseIDArg(args[0]))
			if err != nil {
				return err
			}
			return a.printProduct(cmd, p)
		},
	}
}

func (a *app) adminStockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stock <product-id> <delta>",
		Short: "Add delta to a product's stock; stock never drops below zero",
		Long: `Stock adds delta to the product's stock, clamping at zero. Put -- before
the arguments when delta is negative.

Example:
  kennel admin stock -- 3 -2`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: delta %q is not an integer", errUsage, args[1])
			}
			s, err := a.adminService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := s.AdjustStock(cmd.Context(), parseIDArg(args[0]), delta)
			if err != nil {
				return err
			}
			return a.printProduct(cmd, p)
		},
	}
}

func (a *app) adminResetPasswordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-passwords <user-id>...",
		Short: "Reset the listed users' passwords to " + admin.ResetPassword,
		Args: func(cmd *cobra.Command, args []string) error {
			return usage(cobra.MinimumNArgs(1)(cmd, args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]types.ID, len(args))
			for i, arg := range args {
				ids[i] = parseIDArg(arg)
			}
			s, err := a.adminService(cmd.Context())
			if err != nil {
				return err
			}
			n, err := s.ResetPasswords(cmd.Context(), ids)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"reset": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d of %d passwords\n", n, len(ids))
			return nil
		},
	}
}

func (a *app) adminAnswerCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "answer <inquiry-id> <response>",
		Short: "Answer an inquiry and set its status",
		Long: `Answer stores the response and the status. Without --status the inquiry is
answered, or back to pending when the response is empty.

Example:
  kennel admin answer 7 "Shipped today"
  kennel admin answer 7 "Refunded" --status closed`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && !slices.Contains(types.InquiryStatuses, status) {
				return fmt.Errorf("%w: --status must be one of %s", errUsage, strings.Join(types.InquiryStatuses, ", "))
			}
			s, err := a.adminService(cmd.Context())
			if err != nil {
				return err
			}
			inq, err := s.AnswerInquiry(cmd.Context(), parseIDArg(args[0]), args[1], status)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), inq)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inquiry %s is %s\n", inq.ID, inq.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, answered or closed")
	return cmd
}

func (a *app) adminFAQCmd() *cobra.Command {
	var faq types.FAQ
	cmd := &cobra.Command{
		Use:   "faq",
		Short: "Publish an FAQ stamped with the current time",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if faq.Question == "" {
				return fmt.Errorf("%w: --question is required", errUsage)
			}
			s, err := a.adminService(cmd.Context())
			if err != nil {
				return err
			}
			created, err := s.PublishFAQ(cmd.Context(), faq)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published FAQ %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&faq.Question, "question", "", "question text")
	cmd.Flags().StringVar(&faq.Answer, "answer", "", "answer text")
	cmd.Flags().StringVar(&faq.Category, "category", "", "FAQ category")
	return cmd
}

func (a *app) adminNoticeCmd() *cobra.Command {
	var n types.Notice
	cmd := &cobra.Command{
		Use:   "notice",
		Short: "Publish a notice stamped with the current time",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if n.Title == "" {
				return fmt.Errorf("%w: --title is required", errUsage)
			}
			s, err := a.adminService(cmd.Context())
			if err != nil {
				return err
			}
			created, err := s.PublishNotice(cmd.Context(), n)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published notice %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&n.Title, "title", "", "notice title")
	cmd.Flags().StringVar(&n.Content, "content", "", "notice body")
	cmd.Flags().BoolVar(&n.Important, "important", false, "pin the notice")
	return cmd
}

func (a *app) adminPostCmd() *cobra.Command {
	var (
		title, content string
		authorID       int64
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Write a community post on behalf of a user",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.adminService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := s.AddPost(cmd.Context(), title, content, authorID)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created post %s by %s\n", p.ID, p.AuthorName)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&content, "content", "", "post body")
	cmd.Flags().Int64Var(&authorID, "author-id", 0, "id of the writing user")
	return cmd
}

func (a *app) adminCommentCmd() *cobra.Command {
	var (
		c                types.Comment
		postID, parentID string
	)
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Write a comment on behalf of a user",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if postID != "" {
				c.PostID = parseIDArg(postID)
			}
			if parentID != "" {
				id := parseIDArg(parentID)
				c.ParentCommentID = &id
			}
			s, err := a.adminService(cmd.Context())
			if err != nil {
				return err
			}
			created, err := s.AddComment(cmd.Context(), c)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created comment %s on post %s\n", created.ID, created.PostID)
			return nil
		},
	}
	cmd.Flags().StringVar(&postID, "post-id", "", "post the comment belongs to")
	cmd.Flags().StringVar(&c.Content, "content", "", "comment text")
	cmd.Flags().Int64Var(&c.AuthorID, "author-id", 0, "id of the writing user")
	cmd.Flags().StringVar(&parentID, "parent-id", "", "comment being replied to")
	return cmd
}

func (a *app) adminOverviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Count the records of every standard entity",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.adminService(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := s.Overview(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), counts)
			}
			for _, c := range counts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %d\n", c.Entity, c.Records)
			}
			return nil
		},
	}
}
