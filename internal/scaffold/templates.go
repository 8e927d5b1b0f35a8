package scaffold

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/roach88/gameforge/internal/gamespec"
)

func pubspecYAML(pkg string, assetPaths []string) string {
	var assets strings.Builder
	assets.WriteString("\n  assets:\n")
	for _, p := range assetPaths {
		fmt.Fprintf(&assets, "    - %s\n", p)
	}

	return fmt.Sprintf(`name: %s
description: A Flutter/Flame game generated by gameforge.
version: 1.0.0+1
publish_to: 'none'

environment:
  sdk: '>=3.0.0 <4.0.0'
  flutter: '>=3.10.0'

dependencies:
  flutter:
    sdk: flutter
  flame: ^1.18.0
  shared_preferences: ^2.2.0

flutter:
  uses-material-design: true
%s`, pkg, assets.String())
}

// mainDart is the fixed entry point. It only sets the orientation and
// hands off to the plugin-owned root widget, so plugins control the whole
// UI shell without ever writing to a boilerplate path.
func mainDart(orientation string) string {
	var orientValues string
	if orientation == "landscape" {
		orientValues = "DeviceOrientation.landscapeLeft,\n    DeviceOrientation.landscapeRight,"
	} else {
		orientValues = "DeviceOrientation.portraitUp,\n    DeviceOrientation.portraitDown,"
	}
	return fmt.Sprintf(`import 'package:flutter/material.dart';
import 'package:flutter/services.dart';
import 'game/app.dart';

void main() async {
  WidgetsFlutterBinding.ensureInitialized();
  await SystemChrome.setPreferredOrientations([
    %s
  ]);
  runApp(const GameApp());
}
`, orientValues)
}

func androidManifest(pkg, orientation string) string {
	androidOrient := "sensorPortrait"
	if orientation == "landscape" {
		androidOrient = "sensorLandscape"
	}
	return fmt.Sprintf(`<manifest xmlns:android="http://schemas.android.com/apk/res/android">
    <application
        android:label="%s"
        android:name="${applicationName}"
        android:icon="@mipmap/ic_launcher">
        <activity
            android:name=".MainActivity"
            android:exported="true"
            android:screenOrientation="%s"
            android:configChanges="orientation|keyboardHidden|keyboard|screenSize|smallestScreenSize|locale|layoutDirection|fontScale|screenLayout|density|uiMode"
            android:hardwareAccelerated="true"
            android:windowSoftInputMode="adjustResize">
            <intent-filter>
                <action android:name="android.intent.action.MAIN"/>
                <category android:name="android.intent.category.LAUNCHER"/>
            </intent-filter>
        </activity>
        <meta-data
            android:name="flutterEmbedding"
            android:value="2" />
    </application>
</manifest>
`, pkg, androidOrient)
}

func iosInfoPlist(title, orientation string) string {
	var supported string
	if orientation == "landscape" {
		supported = `        <string>UIInterfaceOrientationLandscapeLeft</string>
        <string>UIInterfaceOrientationLandscapeRight</string>`
	} else {
		supported = `        <string>UIInterfaceOrientationPortrait</string>
        <string>UIInterfaceOrientationPortraitUpsideDown</string>`
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN"
    "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>CFBundleName</key>
    <string>%s</string>
    <key>CFBundleIdentifier</key>
    <string>$(PRODUCT_BUNDLE_IDENTIFIER)</string>
    <key>CFBundleVersion</key>
    <string>1</string>
    <key>CFBundleShortVersionString</key>
    <string>1.0.0</string>
    <key>UILaunchStoryboardName</key>
    <string>LaunchScreen</string>
    <key>UISupportedInterfaceOrientations</key>
    <array>
%s
    </array>
    <key>io.flutter.embedded_views_preview</key>
    <true/>
</dict>
</plist>
`, title, supported)
}

func mainActivityKt(pkg string) string {
	return fmt.Sprintf(`package com.example.%s

import io.flutter.embedding.android.FlutterActivity

class MainActivity : FlutterActivity()
`, pkg)
}

func androidAppBuildGradle(pkg string) string {
	return fmt.Sprintf(`def localProperties = new Properties()
def localPropertiesFile = rootProject.file('local.properties')
if (localPropertiesFile.exists()) {
    localPropertiesFile.withReader('UTF-8') { reader ->
        localProperties.load(reader)
    }
}

def flutterRoot = localProperties.getProperty('flutter.sdk')
if (flutterRoot == null) {
    throw new GradleException("Flutter SDK not found. Define location with flutter.sdk in the local.properties file.")
}

def flutterVersionCode = localProperties.getProperty('flutter.versionCode')
if (flutterVersionCode == null) {
    flutterVersionCode = '1'
}

def flutterVersionName = localProperties.getProperty('flutter.versionName')
if (flutterVersionName == null) {
    flutterVersionName = '1.0'
}

apply plugin: 'com.android.application'
apply plugin: 'kotlin-android'
apply from: "$flutterRoot/packages/flutter_tools/gradle/flutter.gradle"

android {
    namespace 'com.example.%[1]s'
    compileSdkVersion 34
    ndkVersion flutter.ndkVersion

    compileOptions {
        sourceCompatibility JavaVersion.VERSION_1_8
        targetCompatibility JavaVersion.VERSION_1_8
    }

    kotlinOptions {
        jvmTarget = '1.8'
    }

    sourceSets {
        main.java.srcDirs += 'src/main/kotlin'
    }

    defaultConfig {
        applicationId "com.example.%[1]s"
        minSdkVersion flutter.minSdkVersion
        targetSdkVersion flutter.targetSdkVersion
        versionCode flutterVersionCode.toInteger()
        versionName flutterVersionName
    }

    buildTypes {
        release {
            signingConfig signingConfigs.debug
        }
    }
}

flutter {
    source '../..'
}

dependencies {
    implementation "org.jetbrains.kotlin:kotlin-stdlib-jdk7:$kotlin_version"
}
`, pkg)
}

const androidRootBuildGradle = `buildscript {
    ext.kotlin_version = '1.9.0'
    repositories {
        google()
        mavenCentral()
    }
    dependencies {
        classpath 'com.android.tools.build:gradle:8.1.0'
        classpath "org.jetbrains.kotlin:kotlin-gradle-plugin:$kotlin_version"
    }
}

allprojects {
    repositories {
        google()
        mavenCentral()
    }
}

rootProject.buildDir = '../build'
subprojects {
    project.buildDir = "${rootProject.buildDir}/${project.name}"
}
subprojects {
    project.evaluationDependsOn(':app')
}

tasks.register("clean", Delete) {
    delete rootProject.buildDir
}
`

const androidSettingsGradle = `include ':app'

def localPropertiesFile = new File(rootProject.projectDir, "local.properties")
def properties = new Properties()

assert localPropertiesFile.exists()
localPropertiesFile.withReader("UTF-8") { reader -> properties.load(reader) }

def flutterSdkPath = properties.getProperty("flutter.sdk")
assert flutterSdkPath != null, "flutter.sdk not set in local.properties"
apply from: "${flutterSdkPath}/packages/flutter_tools/gradle/app_plugin_loader.gradle"
`

const androidGradleProperties = `org.gradle.jvmargs=-Xmx4G -XX:MaxMetaspaceSize=2G -XX:+HeapDumpOnOutOfMemoryError
android.useAndroidX=true
android.enableJetifier=true
`

const gradleWrapperProperties = `distributionBase=GRADLE_USER_HOME
distributionPath=wrapper/dists
zipStoreBase=GRADLE_USER_HOME
zipStorePath=wrapper/dists
distributionUrl=https\://services.gradle.org/distributions/gradle-8.3-bin.zip
`

const androidStylesXML = `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <style name="LaunchTheme" parent="@android:style/Theme.Black.NoTitleBar">
        <item name="android:windowBackground">@drawable/launch_background</item>
    </style>
    <style name="NormalTheme" parent="@android:style/Theme.Black.NoTitleBar">
        <item name="android:windowBackground">?android:colorBackground</item>
    </style>
</resources>
`

const androidLaunchBackgroundXML = `<?xml version="1.0" encoding="utf-8"?>
<layer-list xmlns:android="http://schemas.android.com/apk/res/android">
    <item android:drawable="@android:color/black" />
</layer-list>
`

const androidDebugManifest = `<manifest xmlns:android="http://schemas.android.com/apk/res/android">
    <uses-permission android:name="android.permission.INTERNET"/>
</manifest>
`

var readmeTmpl = template.Must(template.New("readme").Parse(`# {{.Title}}

Generated by **gameforge**.

## Genre
` + "`{{.Genre}}`" + `

## Core Loop
{{.CoreLoop}}

## Mechanics
{{.Mechanics}}

## Controls
- **Keyboard / Desktop**: {{.Keyboard}}
- **Mobile**: {{.Mobile}}

## Prerequisites
- [Flutter SDK](https://docs.flutter.dev/get-started/install) >= 3.10
- Run ` + "`flutter pub get`" + ` before building.

## Getting Started
` + "```bash\nflutter pub get\nflutter run\n```" + `

## Asset Licensing
See [ASSETS_LICENSE.md](ASSETS_LICENSE.md) and [CREDITS.md](CREDITS.md).
`))

var assetsLicenseTmpl = template.Must(template.New("assets_license").Parse(`# Asset Licensing - {{.Title}}

The assets in ` + "`assets/imported/`" + ` were supplied by the user from a local
folder at project generation time. **gameforge does not redistribute these assets.**

## Your Responsibilities
- Ensure you hold the appropriate licence for every asset file included here.
- If assets originate from a third party, consult the relevant licence file
  before distributing your game.
- gameforge does **not** automatically download assets from any online storefront.

## Placeholder Assets
If gameforge could not find a matching asset it may have generated a coloured
rectangle placeholder in code. Replace these before publishing.
`))

var creditsTmpl = template.Must(template.New("credits").Parse(`# Credits - {{.Title}}

Generated by **gameforge**.

## Assets
{{.AssetsSourceNote}}

## Third-Party Libraries
| Package | Version | Licence |
|---------|---------|---------|
| flame   | ^1.18.0 | MIT     |
| flutter | SDK     | BSD-3-Clause |

## Your Responsibilities
Ensure you hold the appropriate licence for every asset in this project.
`))

func renderDocs(spec *gamespec.GameSpec) (map[string]string, error) {
	assetsNote := "No assets directory was supplied; assets/imported/ contains placeholders."
	if spec.AssetsDir != "" {
		assetsNote = fmt.Sprintf("Assets were imported from: `%s`", spec.AssetsDir)
	}

	docs := map[string]struct {
		tmpl *template.Template
		data any
	}{
		"README.md": {readmeTmpl, map[string]string{
			"Title":     spec.Title,
			"Genre":     spec.Genre,
			"CoreLoop":  spec.CoreLoop,
			"Mechanics": strings.Join(spec.Mechanics, ", "),
			"Keyboard":  strings.Join(spec.Controls["keyboard"], ", "),
			"Mobile":    strings.Join(spec.Controls["mobile"], ", "),
		}},
		"ASSETS_LICENSE.md": {assetsLicenseTmpl, map[string]string{
			"Title": spec.Title,
		}},
		"CREDITS.md": {creditsTmpl, map[string]string{
			"Title":            spec.Title,
			"AssetsSourceNote": assetsNote,
		}},
	}

	out := make(map[string]string, len(docs))
	for path, d := range docs {
		var b strings.Builder
		if err := d.tmpl.Execute(&b, d.data); err != nil {
			return nil, fmt.Errorf("render %s: %w", path, err)
		}
		out[path] = b.String()
	}
	return out, nil
}
