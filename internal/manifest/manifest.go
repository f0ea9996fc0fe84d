// Package manifest provides the declarative description of the benchmark README:
// document metadata, the changelog and the ordered list of targets.
//
// The built-in manifest reproduces the AutoBenchmark README of AceCommon. A YAML
// manifest file can replace it for other benchmark programs.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harrison/benchdoc/internal/models"
)

// toolchain is shared by every target of the built-in manifest.
const toolchain = "Arduino IDE 1.8.19, Arduino CLI 0.31.0"

// Default returns the built-in AutoBenchmark manifest
func Default() *models.Manifest {
	return &models.Manifest{
		Title:   "AutoBenchmark",
		Summary: "Determine the speed of various AceCommon functions and algorithms.",
		Version: "AceCommon v1.6.0",
		Dependencies: []models.Dependency{
			{Name: "AceCommon", URL: "https://github.com/bxparks/AceCommon"},
		},
		Changelog: defaultChangelog(),
		Targets:   defaultTargets(),
	}
}

func defaultTargets() []models.Target {
	return []models.Target{
		{
			Name:  "nano",
			Title: "Arduino Nano",
			Details: []string{
				"16MHz ATmega328P",
				toolchain,
				"Arduino AVR Boards 1.8.5",
				"`micros()` has a resolution of 4 microseconds",
			},
		},
		{
			Name:  "micro",
			Title: "SparkFun Pro Micro",
			Details: []string{
				"16 MHz ATmega32U4",
				toolchain,
				"SparkFun AVR Boards 1.1.13",
				"`micros()` has a resolution of 4 microseconds",
			},
		},
		{
			Name:         "samd21",
			Title:        "SAMD21 Seeeduino XIAO M0",
			HeadingLevel: 2,
			Details: []string{
				"SAMD51, 120 MHz ARM Cortex-M4",
				toolchain,
				"Seeeduino SAMD 1.8.4",
			},
		},
		{
			Name:  "stm32",
			Title: "STM32",
			Details: []string{
				`STM32 "Blue Pill", STM32F103C8, 72 MHz ARM Cortex-M3`,
				toolchain,
				"STM32duino 2.3.0",
			},
		},
		{
			Name:         "samd51",
			Title:        "SAMD51 Adafruit ItsyBitsy M4",
			HeadingLevel: 2,
			Details: []string{
				"SAMD51, 120 MHz ARM Cortex-M4",
				toolchain,
				"Adafruit SAMD 1.7.11",
			},
		},
		{
			Name:  "esp8266",
			Title: "ESP8266",
			Details: []string{
				"NodeMCU 1.0 clone, 80MHz ESP8266",
				toolchain,
				"ESP8266 Boards 3.0.2",
			},
		},
		{
			Name:  "esp32",
			Title: "ESP32",
			Details: []string{
				"ESP32-01 Dev Board, 240 MHz Tensilica LX6",
				toolchain,
				"ESP32 Boards 2.0.5",
			},
		},
	}
}

func notes(texts ...string) []models.Note {
	out := make([]models.Note, len(texts))
	for i, t := range texts {
		out[i] = models.Note{Text: t}
	}
	return out
}

func defaultChangelog() []models.Release {
	return []models.Release{
		{
			Version: "v1.4.4",
			Notes: notes("Created the AutoBenchmark, replacing the `examples/Udiv1000` program that\n" +
				"    measured only the `udiv1000()` function. It seems like `examples/Udiv1000`\n" +
				"    underestimated the duration of the `udiv1000()` function for AVR\n" +
				"    processors, probably because it did not sufficiently disable compiler\n" +
				"    optimizations. That program found that that `udiv1000()` took about 5-6\n" +
				"    microseconds on the AVR. The AutoBenchmark program finds that it actually\n" +
				"    takes 16-16 microseconds."),
		},
		{
			Version: "v1.4.5",
			Notes:   notes("Upgrade to ESP32 Core v1.0.6. No significant change."),
		},
		{
			Version: "v1.4.6",
			Notes: notes(
				"Upgrade STM32duino Core from 1.9.0 to 2.0.0.",
				"Upgrade SparkFun SAMD Core from 1.8.1 to 1.8.3.",
				"No significant change in CPU times.",
			),
		},
		{
			Version: "v1.4.7",
			Notes: notes(
				"Upgrade Arduino IDE from 1.8.13 to 1.8.16.",
				"Upgrade Arduino CLI from 0.14.0 to 0.19.2",
				"Upgrade SparkFun SAMD Core from 1.8.3 to 1.8.5.",
				"Upgrade ESP8266 Core from 2.7.4 to 3.0.2.",
				"Upgrade Teensyduino from 1.53 to 1.55.",
				"No significant change in CPU times.",
			),
		},
		{
			Version: "v1.5.0",
			Notes: notes(
				"Remove SAMD21 board.",
				"Upgrade Arduino IDE from 1.8.16 to 1.8.19.",
				"Upgrade Arduino CLI from 0.19.2 to 0.20.2.",
				"Upgrade Arduino AVR Core from 1.8.3 to 1.8.4.",
				"Upgrade STM32 Core from 2.0.0 to 2.2.0.",
				"Upgrade ESP32 Core from 1.0.6 to 2.0.2.",
				"Upgrade Teensyduino from 1.55 to 1.56.",
			),
		},
		{
			Version: "v1.5.2",
			Notes: []models.Note{
				{
					Text: "Upgrade tool chain",
					Notes: notes(
						"Upgrade Arduino CLI from 0.20.2 to 0.27.1.",
						"Upgrade Arduino AVR Core from 1.8.4 to 1.8.5.",
						"Upgrade STM32 Core from 2.2.0 to 2.3.0.",
						"Upgrade ESP32 Core from 2.0.2 to 2.0.5.",
						"Upgrade Teensyduino from 1.56 to 1.57.",
					),
				},
				{Text: "No significant changes to CPU times."},
			},
		},
		{
			Version: "v1.6.0",
			Notes: []models.Note{
				{
					Text: "Upgrade tool chain",
					Notes: notes(
						"Upgrade Arduino CLI to 0.31.0.",
						"Upgrade Arduino AVR Core to 1.8.6.",
						"Add Seeeduino SAMD 1.8.4",
						"Upgrade STM32 Core to 2.5.0.",
						"Add Adafruit SAMD 1.7.11",
						"Upgrade ESP32 Core to 2.0.9.",
						"Remove Teensy 3.2.",
					),
				},
				{Text: "Add more PROGMEM support in `KString`, `copyReplaceChar()` and\n  `copyReplaceString()`."},
				{Text: "No significant changes to memory sizes."},
			},
		},
	}
}

// Load reads a manifest from a YAML file. Unknown keys are rejected so that a
// misspelled field does not silently drop a section from the README.
func Load(path string) (*models.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML manifest
func Parse(data []byte) (*models.Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("manifest is empty")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m models.Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}
