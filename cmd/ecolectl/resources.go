package main

import (
	"context"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
	"github.com/ecoledesexcellents/ecole-ui/internal/domain/model"
	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
)

var (
	adminOnly = []domainauth.Role{domainauth.RoleAdmin}
	staff     = []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleCoordon}
)

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationField("id", "identifiant invalide: "+raw)
	}
	return id, nil
}

func parseKind(raw string) (model.MemberKind, error) {
	kind, ok := model.ParseMemberKind(raw)
	if !ok {
		return "", apperrors.ValidationField("kind", "type de membre inconnu: "+raw+" (encadreurs, etudiants, coordons)")
	}
	return kind, nil
}

func newCoursCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "cours", Short: "Manage courses"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, _ []string) error {
			if _, err := a.require(ctx); err != nil {
				return err
			}
			items, err := a.services.Cours.List(ctx)
			if err != nil {
				return err
			}
			return a.render(items, func() pterm.TableData { return coursTable(items...) })
		}),
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a course",
		Args:  cobra.ExactArgs(1),
		RunE: a.action(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.require(ctx); err != nil {
				return err
			}
			c, err := a.services.Cours.Get(ctx, id)
			if err != nil {
				return err
			}
			return a.render(c, func() pterm.TableData { return coursTable(*c) })
		}),
	}

	var in model.CoursInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a course",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, _ []string) error {
			if _, err := a.require(ctx, adminOnly...); err != nil {
				return err
			}
			c, err := a.services.Cours.Create(ctx, in)
			if err != nil {
				return err
			}
			a.success("Cours %d créé", c.ID)
			return a.render(c, func() pterm.TableData { return coursTable(*c) })
		}),
	}
	coursFlags(create, &in)

	var patch model.CoursInput
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a course; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
	}
	coursFlags(update, &patch)
	update.RunE = a.action(func(ctx context.Context, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if _, err := a.require(ctx, adminOnly...); err != nil {
			return err
		}
		current, err := a.services.Cours.Get(ctx, id)
		if err != nil {
			return err
		}
		next := model.CoursInput{
			Titre:       current.Titre,
			Description: current.Description,
			Encadreurs:  model.RefIDs(current.Encadreurs),
			Promotions:  model.RefIDs(current.Promotions),
		}
		flags := update.Flags()
		if flags.Changed("titre") {
			next.Titre = patch.Titre
		}
		if flags.Changed("description") {
			next.Description = patch.Description
		}
		if flags.Changed("encadreur") {
			next.Encadreurs = patch.Encadreurs
		}
		if flags.Changed("promotion") {
			next.Promotions = patch.Promotions
		}
		c, err := a.services.Cours.Update(ctx, id, next)
		if err != nil {
			return err
		}
		a.success("Cours %d mis à jour", c.ID)
		return a.render(c, func() pterm.TableData { return coursTable(*c) })
	})

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a course",
		Args:  cobra.ExactArgs(1),
		RunE: a.action(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.require(ctx, adminOnly...); err != nil {
				return err
			}
			if err := a.services.Cours.Delete(ctx, id); err != nil {
				return err
			}
			a.success("Cours %d supprimé", id)
			return nil
		}),
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

func coursFlags(cmd *cobra.Command, in *model.CoursInput) {
	cmd.Flags().StringVar(&in.Titre, "titre", "", "Title")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().IntSliceVar(&in.Encadreurs, "encadreur", nil, "Supervisor id (repeatable)")
	cmd.Flags().IntSliceVar(&in.Promotions, "promotion", nil, "Promotion id (repeatable)")
}

func coursTable(items ...model.Cours) pterm.TableData {
	data := pterm.TableData{{"ID", "TITRE", "ENCADREURS", "PROMOTIONS", "CRÉÉ LE"}}
	for _, c := range items {
		data = append(data, []string{
			strconv.Itoa(c.ID), c.Titre, refsString(c.Encadreurs), refsString(c.Promotions), formatTime(c.DateCreation),
		})
	}
	return data
}

func newMembersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "members", Short: "Manage encadreurs, étudiants and coordinateurs"}

	list := &cobra.Command{
		Use:   "list <kind>",
		Short: "List members of a kind (encadreurs, etudiants, coordons)",
		Args:  cobra.ExactArgs(1),
		RunE: a.action(func(ctx context.Context, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			if _, err := a.require(ctx, staff...); err != nil {
				return err
			}
			items, err := a.services.Members.List(ctx, kind)
			if err != nil {
				return err
			}
			return a.render(items, func() pterm.TableData { return memberTable(items...) })
		}),
	}

	get := &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Show a member",
		Args:  cobra.ExactArgs(2),
		RunE: a.action(func(ctx context.Context, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if _, err := a.require(ctx, staff...); err != nil {
				return err
			}
			m, err := a.services.Members.Get(ctx, kind, id)
			if err != nil {
				return err
			}
			return a.render(m, func() pterm.TableData { return memberTable(*m) })
		}),
	}

	var in model.CreateMemberInput
	var promotion int
	create := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create a member account",
		Args:  cobra.ExactArgs(1),
		RunE: a.action(func(ctx context.Context, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			if _, err := a.require(ctx, adminOnly...); err != nil {
				return err
			}
			in.Promotion = optionalID(promotion)
			m, err := a.services.Members.Create(ctx, kind, in)
			if err != nil {
				return err
			}
			a.success("Compte %d créé pour %s", m.ID, m.Email)
			return a.render(m, func() pterm.TableData { return memberTable(*m) })
		}),
	}
	create.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	create.Flags().StringVar(&in.LastName, "last-name", "", "Last name")
	create.Flags().StringVar(&in.Email, "email", "", "Email")
	create.Flags().StringVar(&in.Telephone, "telephone", "", "Phone number")
	create.Flags().StringVar(&in.Username, "username", "", "Username (defaults to the first name)")
	create.Flags().StringVar(&in.Password, "password", "", "Initial password")
	create.Flags().IntVar(&promotion, "promotion", 0, "Promotion id")

	var patch model.UpdateMemberInput
	var patchPromotion int
	update := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "Update a member account; unset flags keep their current value",
		Args:  cobra.ExactArgs(2),
	}
	update.Flags().StringVar(&patch.FirstName, "first-name", "", "First name")
	update.Flags().StringVar(&patch.LastName, "last-name", "", "Last name")
	update.Flags().StringVar(&patch.Email, "email", "", "Email")
	update.Flags().StringVar(&patch.Telephone, "telephone", "", "Phone number")
	update.Flags().IntVar(&patchPromotion, "promotion", 0, "Promotion id (0 removes it)")
	update.RunE = a.action(func(ctx context.Context, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if _, err := a.require(ctx, adminOnly...); err != nil {
			return err
		}
		current, err := a.services.Members.Get(ctx, kind, id)
		if err != nil {
			return err
		}
		next := model.FromMember(*current)
		flags := update.Flags()
		if flags.Changed("first-name") {
			next.FirstName = patch.FirstName
		}
		if flags.Changed("last-name") {
			next.LastName = patch.LastName
		}
		if flags.Changed("email") {
			next.Email = patch.Email
		}
		if flags.Changed("telephone") {
			next.Telephone = patch.Telephone
		}
		if flags.Changed("promotion") {
			next.Promotion = optionalID(patchPromotion)
		}
		m, err := a.services.Members.Update(ctx, kind, id, next)
		if err != nil {
			return err
		}
		a.success("Compte %d mis à jour", m.ID)
		return a.render(m, func() pterm.TableData { return memberTable(*m) })
	})

	del := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a member account",
		Args:  cobra.ExactArgs(2),
		RunE: a.action(func(ctx context.Context, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if _, err := a.require(ctx, adminOnly...); err != nil {
				return err
			}
			if err := a.services.Members.Delete(ctx, kind, id); err != nil {
				return err
			}
			a.success("Compte %d supprimé", id)
			return nil
		}),
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

// optionalID maps a flag value onto a nullable relation; 0 means none.
func optionalID(id int) *int {
	if id <= 0 {
		return nil
	}
	return &id
}

func memberTable(items ...model.Member) pterm.TableData {
	data := pterm.TableData{{"ID", "NOM", "EMAIL", "TÉLÉPHONE", "PROMOTION"}}
	for _, m := range items {
		data = append(data, []string{
			strconv.Itoa(m.ID), m.FirstName + " " + m.LastName, m.Email, m.Telephone, promotionName(m.Promotion),
		})
	}
	return data
}

func newPromotionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "promotions", Short: "Browse promotions"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List promotions",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, _ []string) error {
			if _, err := a.require(ctx); err != nil {
				return err
			}
			items, err := a.services.Promotions.List(ctx)
			if err != nil {
				return err
			}
			return a.render(items, func() pterm.TableData {
				data := pterm.TableData{{"ID", "NOM", "ANNÉE"}}
				for _, p := range items {
					annee := ""
					if p.Annee != 0 {
						annee = strconv.Itoa(p.Annee)
					}
					data = append(data, []string{strconv.Itoa(p.ID), p.Name, annee})
				}
				return data
			})
		}),
	})
	return cmd
}

func newHorairesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "horaires", Short: "Manage schedules"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List schedule entries",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, _ []string) error {
			if _, err := a.require(ctx); err != nil {
				return err
			}
			items, err := a.services.Horaires.List(ctx)
			if err != nil {
				return err
			}
			return a.render(items, func() pterm.TableData { return horaireTable(items...) })
		}),
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a schedule entry",
		Args:  cobra.ExactArgs(1),
		RunE: a.action(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.require(ctx); err != nil {
				return err
			}
			h, err := a.services.Horaires.Get(ctx, id)
			if err != nil {
				return err
			}
			return a.render(h, func() pterm.TableData { return horaireTable(*h) })
		}),
	}

	var created horaireFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a schedule entry (times in RFC 3339)",
		Args:  cobra.NoArgs,
	}
	created.bind(create)
	_ = create.MarkFlagRequired("debut")
	create.RunE = a.action(func(ctx context.Context, _ []string) error {
		in, err := created.apply(create, model.HoraireInput{})
		if err != nil {
			return err
		}
		if _, err := a.require(ctx, adminOnly...); err != nil {
			return err
		}
		h, err := a.services.Horaires.Create(ctx, in)
		if err != nil {
			return err
		}
		a.success("Horaire %d créé", h.ID)
		return a.render(h, func() pterm.TableData { return horaireTable(*h) })
	})

	var changed horaireFlags
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a schedule entry; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
	}
	changed.bind(update)
	update.RunE = a.action(func(ctx context.Context, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if _, err := a.require(ctx, adminOnly...); err != nil {
			return err
		}
		current, err := a.services.Horaires.Get(ctx, id)
		if err != nil {
			return err
		}
		in, err := changed.apply(update, current.Input())
		if err != nil {
			return err
		}
		h, err := a.services.Horaires.Update(ctx, id, in)
		if err != nil {
			return err
		}
		a.success("Horaire %d mis à jour", h.ID)
		return a.render(h, func() pterm.TableData { return horaireTable(*h) })
	})

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a schedule entry",
		Args:  cobra.ExactArgs(1),
		RunE: a.action(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.require(ctx, adminOnly...); err != nil {
				return err
			}
			if err := a.services.Horaires.Delete(ctx, id); err != nil {
				return err
			}
			a.success("Horaire %d supprimé", id)
			return nil
		}),
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

// horaireFlags holds the schedule flags shared by create and update.
type horaireFlags struct {
	titre, description, lieu string
	debut, fin               string
	cours, promotion         int
}

func (f *horaireFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.titre, "titre", "", "Title")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.lieu, "lieu", "", "Room or place")
	cmd.Flags().StringVar(&f.debut, "debut", "", "Start time, e.g. 2025-03-10T08:00:00Z")
	cmd.Flags().StringVar(&f.fin, "fin", "", "End time (empty removes it)")
	cmd.Flags().IntVar(&f.cours, "cours", 0, "Course id (0 removes it)")
	cmd.Flags().IntVar(&f.promotion, "promotion", 0, "Promotion id (0 removes it)")
}

// apply overlays the flags set on cmd onto base.
func (f *horaireFlags) apply(cmd *cobra.Command, base model.HoraireInput) (model.HoraireInput, error) {
	flags := cmd.Flags()
	in := base
	if flags.Changed("titre") {
		in.Titre = f.titre
	}
	if flags.Changed("description") {
		in.Description = f.description
	}
	if flags.Changed("lieu") {
		in.Lieu = f.lieu
	}
	if flags.Changed("debut") {
		start, err := time.Parse(time.RFC3339, f.debut)
		if err != nil {
			return in, apperrors.ValidationField("date_debut", "date invalide: "+f.debut)
		}
		in.DateDebut = start
	}
	if flags.Changed("fin") {
		in.DateFin = nil
		if f.fin != "" {
			end, err := time.Parse(time.RFC3339, f.fin)
			if err != nil {
				return in, apperrors.ValidationField("date_fin", "date invalide: "+f.fin)
			}
			in.DateFin = &end
		}
	}
	if flags.Changed("cours") {
		in.Cours = optionalID(f.cours)
	}
	if flags.Changed("promotion") {
		in.Promotion = optionalID(f.promotion)
	}
	return in, nil
}

func horaireTable(items ...model.Horaire) pterm.TableData {
	data := pterm.TableData{{"ID", "TITRE", "DÉBUT", "FIN", "LIEU", "COURS", "PROMOTION"}}
	for _, h := range items {
		start := h.DateDebut
		data = append(data, []string{
			strconv.Itoa(h.ID), h.Titre, formatTime(&start), formatTime(h.DateFin), h.Lieu, optInt(h.Cours), optInt(h.Promotion),
		})
	}
	return data
}

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "stats", Short: "Dashboard statistics"}

	var promotionID int
	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Show every dashboard figure, optionally for one promotion",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, _ []string) error {
			if _, err := a.require(ctx, staff...); err != nil {
				return err
			}
			d, err := a.services.Stats.Dashboard(ctx, promotionID)
			if err != nil {
				return err
			}
			if a.flags.output == outputJSON {
				return a.render(d, nil)
			}
			return renderDashboard(a, d)
		}),
	}
	dashboard.Flags().IntVar(&promotionID, "promotion", 0, "Promotion id filter")

	overview := &cobra.Command{
		Use:   "overview",
		Short: "Show the headline counters",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, _ []string) error {
			if _, err := a.require(ctx, staff...); err != nil {
				return err
			}
			o, err := a.services.Stats.Overview(ctx)
			if err != nil {
				return err
			}
			return a.render(o, func() pterm.TableData { return overviewTable(o) })
		}),
	}

	cmd.AddCommand(dashboard, overview)
	return cmd
}

func overviewTable(o model.Overview) pterm.TableData {
	return pterm.TableData{
		{"COORDINATEURS", "ENCADREURS", "ÉTUDIANTS", "COURS"},
		{strconv.Itoa(o.Coordons), strconv.Itoa(o.Encadreurs), strconv.Itoa(o.Etudiants), strconv.Itoa(o.Cours)},
	}
}

func renderDashboard(a *app, d *model.Dashboard) error {
	writeln(a.out, pterm.DefaultSection.Sprint("Vue d'ensemble"))
	if err := renderTable(a.out, overviewTable(d.Overview)); err != nil {
		return err
	}

	writeln(a.out, pterm.DefaultSection.Sprint("Coordinateurs"))
	if err := renderTable(a.out, contactTable(d.Coordons)); err != nil {
		return err
	}

	writeln(a.out, pterm.DefaultSection.Sprint("Encadreurs"))
	if err := renderTable(a.out, contactTable(d.Encadreurs)); err != nil {
		return err
	}

	writeln(a.out, pterm.DefaultSection.Sprint("Horaires"))
	data := pterm.TableData{{"TITRE", "DÉBUT", "FIN", "LIEU", "COURS", "PROMOTION"}}
	for _, h := range d.Horaires {
		data = append(data, []string{h.Titre, h.DateDebut, h.DateFin, h.Lieu, h.CoursTitre, h.PromotionName})
	}
	return renderTable(a.out, data)
}

func contactTable(items []model.ContactInfo) pterm.TableData {
	data := pterm.TableData{{"NOM", "EMAIL", "TÉLÉPHONE"}}
	for _, c := range items {
		data = append(data, []string{c.FirstName + " " + c.LastName, c.Email, c.Telephone})
	}
	return data
}
