package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pumpnet/calculator"
	"pumpnet/catalog"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// Render 输出基准工况摘要和敏感性分析表，points 可为空
func Render(w io.Writer, a calculator.Analysis, points []calculator.SweepPoint) error {
	blocks := []string{
		titleStyle.Render("Pumped network analysis"),
		boxStyle.Render(summary(a)),
	}
	if len(a.Distribution) > 0 {
		blocks = append(blocks, boxStyle.Render(distribution(a)))
	}
	if len(points) > 0 {
		blocks = append(blocks, boxStyle.Render(sweep(points)))
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, blocks...))
	return err
}

func summary(a calculator.Analysis) string {
	rows := [][2]string{
		{"Head", fmt.Sprintf("%.3f m", a.Head)},
		{"Total loss", fmt.Sprintf("%.3f m", a.TotalLoss)},
		{"  before", fmt.Sprintf("%.3f m", a.BeforeLoss)},
		{"  parallel", fmt.Sprintf("%.3f m", a.ParallelLoss)},
		{"  after", fmt.Sprintf("%.3f m", a.AfterLoss)},
		{"Power", fmt.Sprintf("%.2f kW", a.Energy.PowerKW)},
		{"Annual cost", fmt.Sprintf("%.2f", a.Energy.AnnualCost)},
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", r[0])))
		b.WriteString(valueStyle.Render(r[1]))
	}
	if a.SeriesBranch {
		b.WriteString("\n" + dimStyle.Render("single branch computed as a series path"))
	}
	return b.String()
}

func distribution(a calculator.Analysis) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-16s %12s", "Branch", "Flow m³/h")))
	for _, bf := range a.Distribution {
		b.WriteString(fmt.Sprintf("\n%-16s %12.3f", bf.Name, bf.Flow))
	}
	return b.String()
}

func sweep(points []calculator.SweepPoint) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %14s", "Scale", "Annual cost")))
	for _, p := range points {
		scale := fmt.Sprintf("%d%%", p.Scale)
		if p.Missing {
			b.WriteString(fmt.Sprintf("\n%-8s %14s", scale, warnStyle.Render("n/a")))
			continue
		}
		b.WriteString(fmt.Sprintf("\n%-8s %14.2f", scale, p.AnnualCost))
	}
	return b.String()
}

// RenderProfile 每个管段的流量、流速和损失
func RenderProfile(w io.Writer, profile []calculator.SegmentProfile) error {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-9s %-12s %3s %10s %8s %9s %9s",
		"Section", "Branch", "#", "Flow", "v m/s", "Major m", "Minor m")))
	for _, p := range profile {
		b.WriteString(fmt.Sprintf("\n%-9s %-12s %3d %10.3f %8.3f %9.4f %9.4f",
			p.Section, p.Branch, p.Index+1, p.Flow, p.Loss.Velocity, p.Loss.Major, p.Loss.Minor))
	}
	_, err := fmt.Fprintln(w, boxStyle.Render(b.String()))
	return err
}

// RenderCatalog 输出物性表
func RenderCatalog(w io.Writer, t catalog.Tables) error {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-22s %-30s %10s", "Material", "Name", "ε mm")))
	for _, m := range t.Materials {
		b.WriteString(fmt.Sprintf("\n%-22s %-30s %10.4f", m.Key, m.Name, m.Roughness))
	}
	b.WriteString("\n\n" + headerStyle.Render(fmt.Sprintf("%-22s %-30s %10s", "Fitting", "Name", "K")))
	for _, f := range t.Fittings {
		b.WriteString(fmt.Sprintf("\n%-22s %-30s %10.2f", f.Key, f.Name, f.K))
	}
	b.WriteString("\n\n" + headerStyle.Render(fmt.Sprintf("%-22s %-30s %10s %12s", "Fluid", "Name", "ρ kg/m³", "ν m²/s")))
	for _, f := range t.Fluids {
		b.WriteString(fmt.Sprintf("\n%-22s %-30s %10.1f %12.3e", f.Key, f.Name, f.Density, f.Viscosity))
	}
	_, err := fmt.Fprintln(w, boxStyle.Render(b.String()))
	return err
}
