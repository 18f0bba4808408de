// Package panel runs the interactive terminal control panel.
package panel
