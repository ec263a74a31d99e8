// Package compiler turns a CUE build declaration into an ir.BuildConfig.
//
// The compiler reads the top-level "build" struct:
//
//	build: {
//		target: { runtime: "node", version: "16.13" }
//		presets: ["@babel/preset-env", { name: "@babel/preset-react", options: runtime: "automatic" }]
//		plugins: ["@babel/plugin-transform-runtime"]
//		entry: "./src/index.js"
//		output: { dir: "built", filename: "bundle.[contenthash].js", clean: true, publicPath: "/" }
//		resolve: extensions: [".js", ".jsx"]
//		rules: [{ test: "/\\.css$/i", handler: "style-pipeline", use: ["style-loader", "css-loader"] }]
//		devServer: { historyApiFallback: true, port: 4200, open: true }
//	}
//
// Every problem is reported as a *CompileError carrying the CUE source
// position. All of them satisfy errors.Is(err, ErrMalformedConfiguration).
package compiler
