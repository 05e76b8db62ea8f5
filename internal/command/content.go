package command

import (
	"bytes"
	"context"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"pkt.systems/pslog"
	"pkt.systems/termfolio/internal/cache"
	"pkt.systems/termfolio/schema"
)

// content holds the cache-backed handlers. Each one makes sure the cache is filled
// before reading; a slot that stays empty renders its localized empty message.
type content struct {
	cache *cache.Cache
}

func (c content) ensure(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.EnsureLoaded(ctx); err != nil {
		pslog.Ctx(ctx).Debug("command content partially loaded", "err", err)
	}
}

func (c content) profile(ctx context.Context) (schema.Profile, bool) {
	c.ensure(ctx)
	if c.cache == nil {
		return schema.Profile{}, false
	}
	return c.cache.Profile()
}

func (c content) about(ctx context.Context, req Request) (schema.CommandResult, error) {
	p, ok := c.profile(ctx)
	if !ok {
		return lines(req.T.T("empty.profile")), nil
	}
	out := []string{req.T.T("about.heading", p.Name)}
	if title := p.Title.Text(req.Lang); title != "" {
		out = append(out, req.T.T("about.title", title))
	}
	out = append(out, "")
	if bio := p.Bio.Text(req.Lang); bio != "" {
		out = append(out, strings.Split(bio, "\n")...)
	}
	if p.Location != "" {
		out = append(out, req.T.T("about.location", p.Location))
	}
	out = append(out, "", req.T.T("about.more"))
	return lines(out...), nil
}

func (c content) whoami(ctx context.Context, req Request) (schema.CommandResult, error) {
	p, ok := c.profile(ctx)
	if !ok {
		return lines(req.T.T("empty.profile")), nil
	}
	handle := p.Handle
	if handle == "" {
		handle = "guest"
	}
	out := []string{req.T.T("whoami.line", p.Name, handle)}
	if title := p.Title.Text(req.Lang); title != "" {
		out = append(out, req.T.T("whoami.title", title))
	}
	return lines(out...), nil
}

func (c content) skills(ctx context.Context, req Request) (schema.CommandResult, error) {
	c.ensure(ctx)
	var skills []schema.Skill
	if c.cache != nil {
		skills, _ = c.cache.Skills()
	}
	if len(skills) == 0 {
		return lines(req.T.T("empty.skills")), nil
	}
	var order []string
	byCategory := map[string][]string{}
	for _, skill := range skills {
		category := skill.Category
		if category == "" {
			category = "Other"
		}
		if _, seen := byCategory[category]; !seen {
			order = append(order, category)
		}
		byCategory[category] = append(byCategory[category], skill.Name)
	}
	out := []string{req.T.T("skills.title"), ""}
	for _, category := range order {
		out = append(out, req.T.T("skills.category", category, strings.Join(byCategory[category], ", ")))
	}
	return lines(out...), nil
}

func (c content) projects(ctx context.Context, req Request) (schema.CommandResult, error) {
	c.ensure(ctx)
	var projects []schema.Project
	if c.cache != nil {
		projects, _ = c.cache.Projects()
	}
	if len(projects) == 0 {
		return lines(req.T.T("empty.projects")), nil
	}
	out := []string{req.T.T("projects.title")}
	for _, p := range projects {
		out = append(out, "")
		key := "projects.item"
		if p.Featured {
			key = "projects.featured"
		}
		out = append(out, req.T.T(key, p.Name, p.Description.Text(req.Lang)))
		if len(p.Tech) > 0 {
			out = append(out, req.T.T("projects.tech", strings.Join(p.Tech, ", ")))
		}
		if p.URL != "" {
			out = append(out, req.T.T("projects.link", p.URL, p.URL))
		}
	}
	return lines(out...), nil
}

func (c content) experience(ctx context.Context, req Request) (schema.CommandResult, error) {
	c.ensure(ctx)
	var items []schema.Experience
	if c.cache != nil {
		items, _ = c.cache.Experiences()
	}
	if len(items) == 0 {
		return lines(req.T.T("empty.experience")), nil
	}
	out := []string{req.T.T("experience.title")}
	for _, e := range items {
		end := e.End
		if end == "" {
			end = req.T.T("experience.present")
		}
		out = append(out, "", req.T.T("experience.item", e.Role.Text(req.Lang), e.Company, e.Start, end))
		if desc := e.Description.Text(req.Lang); desc != "" {
			for _, line := range strings.Split(desc, "\n") {
				out = append(out, req.T.T("experience.detail", line))
			}
		}
	}
	return lines(out...), nil
}

func (c content) education(ctx context.Context, req Request) (schema.CommandResult, error) {
	c.ensure(ctx)
	var items []schema.Education
	if c.cache != nil {
		items, _ = c.cache.Education()
	}
	if len(items) == 0 {
		return lines(req.T.T("empty.education")), nil
	}
	out := []string{req.T.T("education.title"), ""}
	for _, e := range items {
		end := e.End
		if end == "" {
			end = req.T.T("experience.present")
		}
		out = append(out, req.T.T("education.item", e.Degree.Text(req.Lang), e.Institution, e.Start, end))
	}
	return lines(out...), nil
}

func (c content) contact(ctx context.Context, req Request) (schema.CommandResult, error) {
	p, ok := c.profile(ctx)
	if !ok {
		return lines(req.T.T("empty.profile")), nil
	}
	if len(req.Args) > 0 && strings.EqualFold(req.Args[0], "qr") {
		return contactQR(p, req), nil
	}
	out := []string{req.T.T("contact.title"), ""}
	if p.Email != "" {
		out = append(out, req.T.T("contact.email", p.Email, p.Email))
	}
	if p.Website != "" {
		out = append(out, req.T.T("contact.website", p.Website, p.Website))
	}
	if p.GitHub != "" {
		out = append(out, req.T.T("contact.github", p.GitHub, p.GitHub))
	}
	if p.LinkedIn != "" {
		out = append(out, req.T.T("contact.linkedin", p.LinkedIn, p.LinkedIn))
	}
	if p.Website != "" {
		out = append(out, "", req.T.T("contact.qr_hint"))
	}
	return lines(out...), nil
}

func contactQR(p schema.Profile, req Request) schema.CommandResult {
	if p.Website == "" {
		return lines(req.T.T("contact.qr_unavailable"))
	}
	var buf bytes.Buffer
	qrterminal.GenerateHalfBlock(p.Website, qrterminal.L, &buf)
	out := []string{req.T.T("contact.qr_title", p.Website), ""}
	out = append(out, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")...)
	return lines(out...)
}

func (c content) refresh(ctx context.Context, req Request) (schema.CommandResult, error) {
	if c.cache != nil {
		if err := c.cache.Refresh(ctx); err != nil {
			pslog.Ctx(ctx).Warn("command refresh incomplete", "err", err)
		}
	}
	return lines(req.T.T("refresh.done")), nil
}
