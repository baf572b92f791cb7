package scan

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/droidtriage/internal/iocs"
	"github.com/muurk/droidtriage/internal/logging"
)

// Target is the device surface the engine probes. *adb.Conn satisfies it;
// tests substitute canned output.
type Target interface {
	Shell(ctx context.Context, command string) (string, error)
}

// Notifier receives findings as they are detected. Implementations may
// block (e.g. a bounded channel applying backpressure); the engine simply
// waits.
type Notifier interface {
	Suspicion(ctx context.Context, s iocs.Suspicion) error
}

// Settings controls which probes run
type Settings struct {
	// SkipApps skips the installed-package probe, the slowest part of a
	// scan on devices with many apps
	SkipApps bool
}

// componentPattern extracts "pkg/class" ids from dumpsys output
var componentPattern = regexp.MustCompile(`ComponentInfo\{([^}]+)\}`)

// Run executes the probe sequence against target and streams every
// finding through notifier. It returns once all probes finished, a probe
// failed, or ctx was cancelled.
func Run(ctx context.Context, target Target, rules *iocs.RuleSet, settings *Settings, notifier Notifier) error {
	if settings == nil {
		settings = &Settings{}
	}

	probes := []struct {
		name string
		run  func(context.Context, Target, *iocs.RuleSet, Notifier) error
	}{
		{"properties", probeProperties},
		{"accessibility", probeAccessibility},
		{"device-admins", probeDeviceAdmins},
	}
	if !settings.SkipApps {
		probes = append(probes, struct {
			name string
			run  func(context.Context, Target, *iocs.RuleSet, Notifier) error
		}{"packages", probePackages})
	}

	for _, probe := range probes {
		if err := ctx.Err(); err != nil {
			return err
		}
		logging.Debug("Running scan probe", zap.String("probe", probe.name))
		if err := probe.run(ctx, target, rules, notifier); err != nil {
			return fmt.Errorf("probe %s failed: %w", probe.name, err)
		}
	}
	return nil
}

// probeProperties flags debug-friendly system configuration
func probeProperties(ctx context.Context, target Target, _ *iocs.RuleSet, notifier Notifier) error {
	out, err := target.Shell(ctx, "getprop ro.debuggable")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "1" {
		sus := iocs.Suspicion{
			Level:       iocs.LevelMedium,
			Description: "device runs a debuggable build (ro.debuggable=1)",
		}
		if err := notifier.Suspicion(ctx, sus); err != nil {
			return err
		}
	}

	out, err = target.Shell(ctx, "settings get secure install_non_market_apps")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "1" {
		sus := iocs.Suspicion{
			Level:       iocs.LevelLow,
			Description: "installation from unknown sources is enabled",
		}
		if err := notifier.Suspicion(ctx, sus); err != nil {
			return err
		}
	}
	return nil
}

// probeAccessibility inspects enabled accessibility services. Stalkerware
// almost always registers one to read the screen and notifications.
func probeAccessibility(ctx context.Context, target Target, rules *iocs.RuleSet, notifier Notifier) error {
	out, err := target.Shell(ctx, "settings get secure enabled_accessibility_services")
	if err != nil {
		return err
	}

	out = strings.TrimSpace(out)
	if out == "" || out == "null" {
		return nil
	}

	for _, serviceID := range strings.Split(out, ":") {
		serviceID = strings.TrimSpace(serviceID)
		if serviceID == "" {
			continue
		}

		var sus iocs.Suspicion
		if rule, ok := rules.MatchService(serviceID); ok {
			sus = iocs.Suspicion{
				Level:       iocs.LevelHigh,
				Description: fmt.Sprintf("known %s accessibility service enabled: %s (%s)", rule.Type, rule.Name, serviceID),
			}
		} else {
			sus = iocs.Suspicion{
				Level:       iocs.LevelMedium,
				Description: fmt.Sprintf("accessibility service enabled: %s", serviceID),
			}
		}
		if err := notifier.Suspicion(ctx, sus); err != nil {
			return err
		}
	}
	return nil
}

// probeDeviceAdmins inspects active device administrators. An admin app
// can block its own uninstallation.
func probeDeviceAdmins(ctx context.Context, target Target, rules *iocs.RuleSet, notifier Notifier) error {
	out, err := target.Shell(ctx, "dumpsys device_policy")
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, match := range componentPattern.FindAllStringSubmatch(out, -1) {
		componentID := match[1]
		if seen[componentID] {
			continue
		}
		seen[componentID] = true

		packageID, _, _ := strings.Cut(componentID, "/")

		var sus iocs.Suspicion
		if rule, ok := rules.MatchPackage(packageID); ok {
			sus = iocs.Suspicion{
				Level:       iocs.LevelHigh,
				Description: fmt.Sprintf("known %s registered as device admin: %s (%s)", rule.Type, rule.Name, componentID),
			}
		} else {
			sus = iocs.Suspicion{
				Level:       iocs.LevelMedium,
				Description: fmt.Sprintf("device admin active: %s", componentID),
			}
		}
		if err := notifier.Suspicion(ctx, sus); err != nil {
			return err
		}
	}
	return nil
}

// probePackages matches every installed package id against the indicators
func probePackages(ctx context.Context, target Target, rules *iocs.RuleSet, notifier Notifier) error {
	out, err := target.Shell(ctx, "pm list packages")
	if err != nil {
		return err
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		packageID, ok := strings.CutPrefix(line, "package:")
		if !ok || packageID == "" {
			continue
		}

		rule, ok := rules.MatchPackage(packageID)
		if !ok {
			continue
		}
		sus := iocs.Suspicion{
			Level:       iocs.LevelHigh,
			Description: fmt.Sprintf("known %s package installed: %s (%s)", rule.Type, rule.Name, packageID),
		}
		if err := notifier.Suspicion(ctx, sus); err != nil {
			return err
		}
	}
	return nil
}
